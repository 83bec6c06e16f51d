// Command lightnode is the thin CLI driver for a light node: it keeps a
// local wallet file of seeds, builds and signs transactions spending a
// chosen address's unspent outputs, and talks to exactly one full node to
// broadcast transactions or fetch the current chain — the counterpart of
// the teacher's cli/cli.go, re-pointed at SPEC_FULL.md §6's light-node
// operations instead of the teacher's getbalance/createblockchain/send
// commands.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kilimbaDaniel/ledgerd/internal/chain"
	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/crypto"
	"github.com/kilimbaDaniel/ledgerd/internal/lightnode"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
	"github.com/kilimbaDaniel/ledgerd/wallet"
)

func main() {
	peer := flag.String("peer", "127.0.0.1:60001", "full node host:port")
	nodeID := flag.String("node", "default", "local wallet file identifier")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	ws, err := wallet.CreateWallets(*nodeID)
	if err != nil && !os.IsNotExist(err) {
		fatal(err)
	}
	driver := lightnode.New(*peer)

	switch flag.Arg(0) {
	case "createwallet":
		address, err := ws.AddWallet(*nodeID)
		if err != nil {
			fatal(err)
		}
		fmt.Println("New address:", address)

	case "listaddresses":
		for _, a := range ws.GetAllAddresses() {
			fmt.Println(a)
		}

	case "balance":
		fs := flag.NewFlagSet("balance", flag.ExitOnError)
		address := fs.String("address", "", "address to check")
		_ = fs.Parse(flag.Args()[1:])
		if *address == "" {
			fatal(fmt.Errorf("balance requires -address"))
		}
		c, err := driver.RequestChain()
		if err != nil {
			fatal(err)
		}
		// A light node has no local store of its own, only the chain it just
		// fetched over the wire; Balance/ValidInputsOf/AmountAt read solely
		// from the model.Chain argument, never from the bound store, so a
		// nil store here is safe.
		api := chain.New(nil)
		fmt.Println("Balance:", api.Balance(c, *address))

	case "send":
		fs := flag.NewFlagSet("send", flag.ExitOnError)
		from := fs.String("from", "", "sending address")
		to := fs.String("to", "", "receiving address")
		amount := fs.Uint64("amount", 0, "amount to send")
		_ = fs.Parse(flag.Args()[1:])
		if *from == "" || *to == "" || *amount == 0 {
			fatal(fmt.Errorf("send requires -from, -to and -amount"))
		}

		w, ok := ws.GetWallet(*from)
		if !ok {
			fatal(fmt.Errorf("no local seed held for address %s", *from))
		}

		c, err := driver.RequestChain()
		if err != nil {
			fatal(err)
		}
		api := chain.New(nil)
		tx, err := buildTransaction(api, c, w, *to, *amount)
		if err != nil {
			fatal(err)
		}
		if err := driver.Broadcast(tx); err != nil {
			fatal(err)
		}
		fmt.Println("Broadcast transaction", tx.TxHash)

	default:
		usage()
		os.Exit(1)
	}
}

// buildTransaction spends enough of w's unspent outputs (as recorded in
// c) to cover amount, signs the result, and returns it ready to broadcast.
func buildTransaction(api *chain.API, c model.Chain, w wallet.Wallet, to string, amount uint64) (model.Transaction, error) {
	refs := api.ValidInputsOf(c, w.Address)

	var inputs []model.Input
	var total uint64
	for _, ref := range refs {
		inputs = append(inputs, ref)
		at, err := api.AmountAt(c, ref.TxHash, ref.OutputIndex)
		if err != nil {
			return model.Transaction{}, err
		}
		total += at
		if total >= amount {
			break
		}
	}
	if total < amount {
		return model.Transaction{}, fmt.Errorf("insufficient funds: have %d, need %d", total, amount)
	}

	outputs := []model.Output{{Address: to, Amount: amount}}
	if change := total - amount; change > 0 {
		outputs = append(outputs, model.Output{Address: w.Address, Amount: change})
	}

	tx := model.Transaction{Inputs: inputs, Outputs: outputs}
	hash, err := codec.TxHash(tx)
	if err != nil {
		return model.Transaction{}, err
	}
	tx.TxHash = hash

	sig, vk, err := crypto.Sign(w.Seed, tx.TxHash)
	if err != nil {
		return model.Transaction{}, err
	}
	tx.Signature = sig
	tx.VerifyingKey = vk
	return tx, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lightnode [-peer host:port] [-node id] <createwallet|listaddresses|balance -address A|send -from A -to B -amount N>")
}
