package wallet

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// walletFile is the persistent storage location for a light node's seeds,
// one file per node id — adapted from the teacher's walletFile pattern,
// narrowed to hold seeds instead of full key pairs (see wallet.go).
const walletFile = "./tmp/wallets_%s.data"

// Wallets is a light node's local collection of seeds, keyed by the
// address each one derives.
type Wallets struct {
	Seeds map[string]string // address -> seed
}

// CreateWallets loads the wallet file for nodeID, or returns an empty
// collection if none exists yet (first run).
func CreateWallets(nodeID string) (*Wallets, error) {
	ws := &Wallets{Seeds: make(map[string]string)}
	err := ws.LoadFile(nodeID)
	return ws, err
}

// AddWallet generates a fresh seed, stores it under its derived address,
// persists the collection, and returns the new address.
func (ws *Wallets) AddWallet(nodeID string) (string, error) {
	w, err := MakeWallet()
	if err != nil {
		return "", err
	}
	ws.Seeds[w.Address] = w.Seed
	if err := ws.SaveFile(nodeID); err != nil {
		return "", err
	}
	return w.Address, nil
}

// GetAllAddresses lists every address this collection holds a seed for.
func (ws *Wallets) GetAllAddresses() []string {
	addresses := make([]string, 0, len(ws.Seeds))
	for address := range ws.Seeds {
		addresses = append(addresses, address)
	}
	return addresses
}

// GetWallet rebuilds the Wallet for address from its stored seed. The
// second return is false if no seed is held for address.
func (ws *Wallets) GetWallet(address string) (Wallet, bool) {
	seed, ok := ws.Seeds[address]
	if !ok {
		return Wallet{}, false
	}
	w, err := FromSeed(seed)
	if err != nil {
		return Wallet{}, false
	}
	return w, true
}

// LoadFile reads nodeID's wallet file and decodes it into ws. A missing
// file (first run) is reported to the caller as an error, matching the
// teacher's LoadFile — callers ignore an os.IsNotExist error and proceed
// with an empty collection.
func (ws *Wallets) LoadFile(nodeID string) error {
	filePath := fmt.Sprintf(walletFile, nodeID)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return err
	}

	fileContent, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	var loaded Wallets
	decoder := gob.NewDecoder(bytes.NewReader(fileContent))
	if err := decoder.Decode(&loaded); err != nil {
		return err
	}

	ws.Seeds = loaded.Seeds
	return nil
}

// SaveFile gob-encodes ws and writes it to nodeID's wallet file.
func (ws *Wallets) SaveFile(nodeID string) error {
	var content bytes.Buffer
	if err := gob.NewEncoder(&content).Encode(ws); err != nil {
		return err
	}
	filePath := fmt.Sprintf(walletFile, nodeID)
	if err := os.MkdirAll("./tmp", 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, content.Bytes(), 0o600)
}
