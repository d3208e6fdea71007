package main

import "github.com/epavlenko/taskboard/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectMongo()
	defer app.DisconnectMongo()

	app.MustListenAndServeHTTP()
}
