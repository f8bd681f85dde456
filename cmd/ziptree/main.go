package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/nguyengg/ziptree/internal/cmd"
)

func main() {
	p, err := cmd.NewParser()
	if err != nil {
		log.Fatal().Err(err).Msg("create parser error")
	}

	_, err = p.Parse()
	exit(exitCode(err))
}

// exitCode is 1 if the command failed, 0 if it succeeded or only printed help.
//
// go-flags has already printed err to stderr.
func exitCode(err error) int {
	if err == nil || flags.WroteHelp(err) {
		return 0
	}

	return 1
}
