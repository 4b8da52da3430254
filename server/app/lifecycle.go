// Package app 定義應用程式根目錄用以管理長期運行元件的最小生命週期抽象。
package app

import (
	"context"
	"sync"
)

// Component 任何可啟動、可關閉的長生命週期元件（HTTP server、SQLite 日誌等）。
//   - Run 阻塞到元件停止為止。
//   - Shutdown 要求優雅關閉，需尊重 ctx 的期限。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// OnShutdown 把只需要在結束時收尾的資源（例如 store.Close）包成 Component。
// Run 會一直阻塞到 Shutdown 被呼叫。
func OnShutdown(fn func(ctx context.Context) error) Component {
	return &closer{fn: fn, done: make(chan struct{})}
}

type closer struct {
	fn   func(ctx context.Context) error
	done chan struct{}
	once sync.Once
}

func (c *closer) Run() error {
	<-c.done
	return nil
}

func (c *closer) Shutdown(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		err = c.fn(ctx)
		close(c.done)
	})
	return err
}
