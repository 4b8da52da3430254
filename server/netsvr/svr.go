package netsvr

import (
	"net/http"

	"github.com/zintix-labs/machilab/server/app"
)

// NetSvr 路由行為加上服務啟停，只給最外層組裝使用。
//   - 其他層只面向 NetRouter。
//   - 目前實作為 net/http + chi；換框架時實作此介面即可。
//   - NetSvr 本身是 app.Component，可直接交給 app.App 管理生命週期。
type NetSvr interface {
	NetRouter
	app.Component
	// Handler 回傳根 handler，供 httptest 直接掛載。
	Handler() http.Handler
}

// NetRouter 純路由行為；Group 回呼只拿得到 NetRouter，看不到 Run/Shutdown。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))
}
