// cmd/main.go
package main

import (
	"go-clinic-auth/app"
)

func main() {
	app.Run()
}
