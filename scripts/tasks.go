package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// goCmd 執行 go 子指令；filter 不為 nil 時合併 stdout/stderr 並逐行交給 filter。
func goCmd(filter func(line string), args ...string) error {
	cmd := exec.Command("go", args...)
	if filter == nil {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go %s: %w", args[0], err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(pr)
		for sc.Scan() {
			filter(sc.Text())
		}
	}()
	err := cmd.Wait()
	_ = pw.Close()
	<-done
	return err
}

func cleanTestCache() {
	if err := goCmd(nil, "clean", "-testcache"); err != nil {
		PrintRed(err.Error())
	}
}

func runTest() error {
	PrintGreen("running tests")
	cleanTestCache()
	err := goCmd(func(line string) {
		switch {
		case strings.HasPrefix(line, "ok"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"):
			PrintRed(line)
		case strings.Contains(line, "build failed") || strings.Contains(line, "setup failed"):
			// 編譯錯誤不會以 ok/FAIL 開頭
			PrintRed(line)
		}
	}, "test", "./...", "-cover", "-count=1")
	if err != nil {
		return fmt.Errorf("tests finished with errors")
	}
	return nil
}

func runTestRace() error {
	PrintGreen("running tests (race)")
	return goCmd(nil, "test", "./...", "-race", "-count=1")
}

func runTestDetail() error {
	PrintGreen("running tests (detail)")
	cleanTestCache()
	return goCmd(func(line string) {
		if !strings.Contains(line, "[no test files]") {
			fmt.Println(line)
		}
	}, "test", "./...", "-v", "-count=1")
}

// runSimSmoke 每個規則版本與供給策略各跑一批開啟稽核的自我對戰。
func runSimSmoke() error {
	for _, v := range []string{"1", "2"} {
		for _, policy := range []string{"total", "variable", "hybrid"} {
			if v == "2" && policy == "hybrid" {
				// hybrid 的紫卡牌堆只存在於 v1
				continue
			}
			PrintBlue(fmt.Sprintf("ruleset v%s policy %s", v, policy))
			err := goCmd(nil, "run", "./cmd/sim",
				"-v", v, "-policy", policy, "-players", "4", "-shuffle",
				"-matches", "2000", "-worker", "4", "-audit", "-out", "yaml")
			if err != nil {
				return fmt.Errorf("sim-smoke v%s %s: %w", v, policy, err)
			}
		}
	}
	PrintGreen("sim-smoke passed")
	return nil
}

// runPGO 以 cmd/sim 拍 CPU profile，複製到 cmd/svr 與 cmd/sim 當作 default.pgo。
func runPGO() error {
	dir := filepath.Join("build", "profiling")
	err := goCmd(nil, "run", "./cmd/sim", "-matches", "200000", "-worker", "1", "-out", "json", "-p", "cpu", "-pprof-dir", dir)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(filepath.Join(dir, "cpu.pprof"))
	if err != nil {
		return err
	}
	for _, cmd := range []string{"svr", "sim"} {
		dst := filepath.Join("cmd", cmd, "default.pgo")
		if err := os.WriteFile(dst, raw, 0o644); err != nil {
			return err
		}
		PrintGreen("wrote " + dst)
	}
	return nil
}
