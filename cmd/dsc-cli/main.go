package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
)

const usage = `dsc-cli is an operator tool for the stablecoin engine.

Usage:
  dsc-cli keygen
  dsc-cli account <address>   [-node URL]
  dsc-cli health <address>    [-node URL]

Commands:
  keygen   generate a new keypair and print the bech32 account address
  account  fetch debt and collateral value for an account
  health   fetch the health factor for an account
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	node := flags.String("node", "http://127.0.0.1:7450", "engined base URL")
	_ = flags.Parse(os.Args[2:])

	var err error
	switch command {
	case "keygen":
		err = runKeygen()
	case "account":
		err = runQuery(*node, flags.Arg(0), "")
	case "health":
		err = runQuery(*node, flags.Arg(0), "/health")
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dsc-cli: %v\n", err)
		os.Exit(1)
	}
}

func runKeygen() error {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	addr := key.PubKey().Address()
	fmt.Printf("address:     %s\n", addr.String())
	fmt.Printf("private key: %s\n", hex.EncodeToString(key.Bytes()))
	return nil
}

func runQuery(node, rawAddr, suffix string) error {
	addr, err := crypto.DecodeAddress(rawAddr)
	if err != nil {
		return fmt.Errorf("account address: %w", err)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(node + "/v1/accounts/" + addr.String() + suffix)
	if err != nil {
		return fmt.Errorf("query node: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned %s: %s", resp.Status, body)
	}
	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
