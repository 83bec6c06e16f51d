// Command fullnode starts a full node: it loads its JSON configuration,
// opens its chain store (bootstrapping a genesis block on first run), and
// serves light-node and neighbor connections until SIGINT/SIGTERM, matching
// the teacher's cli/cli.go + network/network.go StartServer entry point,
// generalized to SPEC_FULL.md §6's config file and §4.9's reactor.
package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/vrecan/death/v3"

	"github.com/kilimbaDaniel/ledgerd/internal/chain"
	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/config"
	"github.com/kilimbaDaniel/ledgerd/internal/crypto"
	"github.com/kilimbaDaniel/ledgerd/internal/fullnode"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
	"github.com/kilimbaDaniel/ledgerd/internal/store"
	"github.com/kilimbaDaniel/ledgerd/internal/validate"
)

func main() {
	configPath := flag.String("config", "fullnode.json", "path to the fullnode JSON config file")
	genesisAddress := flag.String("genesis", "", "address to fund with the genesis output (only used bootstrapping a fresh store)")
	threshold := flag.Int("threshold", 1, "mempool size that triggers block formation")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	st, err := bootstrapStore(cfg.FullnodeInfo.DatabasePath, *genesisAddress, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initializing chain store")
	}

	api := chain.New(st)
	validator := validate.New(api)

	nodeCfg := fullnode.Config{
		ClientListenAddr:   addr(cfg.FullnodeInfo.Host, cfg.FullnodeInfo.ClientsListeningPort),
		NeighborListenAddr: addr(cfg.FullnodeInfo.Host, cfg.FullnodeInfo.NeighborsListeningPort),
		NeighborDialAddr:   addr(cfg.NeighborsInfo.NeighborAddress, cfg.NeighborsInfo.NeighborPort),
		Threshold:          *threshold,
	}
	node := fullnode.New(nodeCfg, api, validator, log)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
		d.WaitForDeathWithFunc(func() {
			log.Info().Msg("shutting down")
			cancel()
			if err := st.Close(); err != nil {
				log.Error().Err(err).Msg("closing chain store")
			}
		})
	}()

	log.Info().Str("clients", nodeCfg.ClientListenAddr).Str("neighbors", nodeCfg.NeighborListenAddr).Msg("fullnode starting")
	if err := node.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("reactor exited")
	}
}

// bootstrapStore opens the chain store at path, installing a genesis block
// funding genesisAddress if the store is freshly initialized and empty.
func bootstrapStore(path, genesisAddress string, log zerolog.Logger) (*store.Store, error) {
	st, err := store.Init(path)
	if err != nil {
		return nil, err
	}

	api := chain.New(st)
	if _, err := api.Chain(); err == nil {
		return st, nil // already bootstrapped from a prior run
	}

	if genesisAddress == "" {
		log.Warn().Msg("no -genesis address given; deriving an ephemeral one for this run only")
		seed, seedErr := crypto.NewSeed()
		if seedErr != nil {
			return nil, seedErr
		}
		genesisAddress, err = crypto.Address(seed)
		if err != nil {
			return nil, err
		}
	}

	genesisTx := model.Transaction{Outputs: []model.Output{{Address: genesisAddress, Amount: 100}}}
	hash, hashErr := codec.TxHash(genesisTx)
	if hashErr != nil {
		return nil, hashErr
	}
	genesisTx.TxHash = hash

	contents := []model.Transaction{genesisTx}
	contentHash, chErr := codec.ContentHash(contents)
	if chErr != nil {
		return nil, chErr
	}

	genesis := model.Block{
		Contents: contents,
		Header:   model.Header{ID: 0, PrevBlockHash: "0", BlockContentHash: contentHash},
	}

	if err := api.AddGenesis(genesis); err != nil {
		return nil, err
	}
	log.Info().Str("genesis_address", genesisAddress).Msg("bootstrapped genesis block")
	return st, nil
}

func addr(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}
