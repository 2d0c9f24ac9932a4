package main

import (
	"github.com/joho/godotenv"

	"kare/internal/app/server"
)

func main() {
	_ = godotenv.Load()
	server.Run()
}
