package main

import (
	"github.com/metrics-reporter/cmd/agent"
)

func main() {
	agent.Execute()
}
