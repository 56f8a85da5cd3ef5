package main

import (
	"os"

	"github.com/yungbote/shopfront-backend/internal/admincli"
)

func main() {
	os.Exit(admincli.Execute())
}
