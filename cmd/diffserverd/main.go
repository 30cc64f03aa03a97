package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/difflyhq/difflycore/internal/diffserver"
)

func main() {
	port := os.Getenv("DIFFLY_API_PORT")
	if port == "" {
		port = "8080"
	}

	srv := diffserver.NewServer()
	logrus.Infof("diffserverd listening on :%s", port)
	if err := srv.Run(port); err != nil {
		logrus.Fatalf("server stopped with error: %v", err)
	}
}
