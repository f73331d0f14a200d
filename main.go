package main

import (
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
