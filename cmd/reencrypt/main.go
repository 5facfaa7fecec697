// Command reencrypt seals sensitive card, proxy and offer card values that
// are still stored as plaintext, using the configured encryption key.
//
// Usage:
//
//	reencrypt [-dry-run] [-prompt] [server config flags]
//
// With -prompt the encryption secret is read from the terminal instead of
// the configuration. Values that look encrypted but do not open under the
// key are reported and left unchanged.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/gophmarket/internal/flagx"
	"github.com/dmitrijs2005/gophmarket/internal/server"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"
)

func main() {
	var dryRun, prompt bool

	fs := flag.NewFlagSet("reencrypt", flag.ContinueOnError)
	fs.BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	fs.BoolVar(&prompt, "prompt", false, "read the encryption secret from the terminal")
	if err := fs.Parse(flagx.Filter{Bool: []string{"-dry-run", "-prompt"}}.Apply(os.Args[1:])); err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	if prompt {
		secret, err := config.PromptSecret(os.Stderr, "Encryption secret")
		if err != nil {
			log.Fatalf("%v", err)
		}
		cfg.EncryptionSecret = secret
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := server.NewLogger(cfg.LogLevel)
	mapper, err := server.NewMapper(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	st, err := server.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer st.Close()

	rep, err := services.NewReencryptor(st.DBTX(), st.RM, mapper, logger, dryRun).Run(ctx)
	if err != nil {
		log.Printf("re-encryption stopped: %v", err)
	}
	if rep != nil {
		fmt.Printf("scanned=%d updated=%d failed=%d dry_run=%t\n", rep.Scanned, rep.Updated, len(rep.Failed), dryRun)
		for _, f := range rep.Failed {
			fmt.Println("undecryptable:", f)
		}
	}
	if err != nil {
		st.Close()
		os.Exit(1)
	}
}
