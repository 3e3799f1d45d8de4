package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v2"

	"github.com/mevkit/chainswap/bridge"
	"github.com/mevkit/chainswap/config"
	"github.com/mevkit/chainswap/custody"
	"github.com/mevkit/chainswap/engine"
	"github.com/mevkit/chainswap/guard"
	"github.com/mevkit/chainswap/utils"
	"github.com/mevkit/chainswap/venue"
)

var scenarioFile string

// scenario describes one dry-run chain execution against in-memory venues.
type scenario struct {
	Caller           string   `yaml:"caller"`
	Strategy         string   `yaml:"strategy"`
	Tokens           []string `yaml:"tokens"`
	Venues           []string `yaml:"venues"`
	Slippage         []uint64 `yaml:"slippage"`
	Amount           string   `yaml:"amount"`
	MinReturnFloor   string   `yaml:"min_return_floor"`
	DestinationChain string   `yaml:"destination_chain"`
	FlaggedTokens    []string `yaml:"flagged_tokens"`
	Pools            []struct {
		ID                 string `yaml:"id"`
		Kind               string `yaml:"kind"`
		TokenA             string `yaml:"token_a"`
		TokenB             string `yaml:"token_b"`
		ReserveA           string `yaml:"reserve_a"`
		ReserveB           string `yaml:"reserve_b"`
		RateNum            int64  `yaml:"rate_num"`
		RateDen            int64  `yaml:"rate_den"`
		Liquidity          string `yaml:"liquidity"`
		MaxSlippagePercent uint64 `yaml:"max_slippage_percent"`
	} `yaml:"pools"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one swap chain from a scenario file",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Error("Failed to load config", zap.Error(err))
			return err
		}

		sc, err := loadScenario(scenarioFile)
		if err != nil {
			log.Error("Failed to load scenario", zap.Error(err))
			return err
		}

		rec, eng, err := runScenario(cfg, sc, log)
		if err != nil {
			log.Error("Run failed", zap.Error(err))
			return err
		}

		fmt.Printf("run %d settled: %s -> %s (digest %x)\n",
			rec.RunID, rec.AmountIn, rec.AmountOut, rec.Digest)
		for _, hop := range rec.Hops {
			fmt.Printf("  hop %d via %s: %s -> %s\n",
				hop.Index, hop.Venue, hop.AmountIn, hop.AmountOut)
		}
		snap := eng.Metrics().Snapshot()
		fmt.Printf("runs=%.0f settled=%.0f volume=%.0f success_rate=%.2f\n",
			snap.RunsTotal, snap.SettledRuns, snap.SettledVolume, snap.SuccessRate)
		return nil
	},
}

func loadScenario(path string) (*scenario, error) {
	if path == "" {
		return nil, fmt.Errorf("a --scenario file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	sc := &scenario{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	return sc, nil
}

// runScenario wires a custody book, venues and engine from the scenario and
// executes one chain.
func runScenario(cfg *config.Config, sc *scenario, log *zap.Logger) (*engine.RunRecord, *engine.Engine, error) {
	params, err := cfg.EngineParams()
	if err != nil {
		return nil, nil, err
	}

	book := custody.NewBook()
	registry := venue.NewRegistry()
	engineAcct := common.HexToAddress("0x00000000000000000000000000000000000000E6")
	caller := common.HexToAddress(sc.Caller)

	for _, p := range sc.Pools {
		tokenA := common.HexToAddress(p.TokenA)
		tokenB := common.HexToAddress(p.TokenB)
		poolAcct := common.BytesToAddress([]byte(p.ID))
		switch p.Kind {
		case "pair_reserve":
			reserveA, err := parseAmount(p.ReserveA)
			if err != nil {
				return nil, nil, fmt.Errorf("pool %s: %w", p.ID, err)
			}
			reserveB, err := parseAmount(p.ReserveB)
			if err != nil {
				return nil, nil, fmt.Errorf("pool %s: %w", p.ID, err)
			}
			pool := venue.NewPairPool(p.ID, book, poolAcct, engineAcct, tokenA, tokenB, reserveA, reserveB)
			err = registry.Register(p.ID, venue.Registered{
				Adapter:            pool,
				Kind:               venue.KindPairReserve,
				MaxSlippagePercent: p.MaxSlippagePercent,
			})
			if err != nil {
				return nil, nil, err
			}
		case "single_liquidity":
			liquidity, err := parseAmount(p.Liquidity)
			if err != nil {
				return nil, nil, fmt.Errorf("pool %s: %w", p.ID, err)
			}
			rateDen := p.RateDen
			if rateDen == 0 {
				rateDen = 1
			}
			pool := venue.NewSinglePool(p.ID, book, poolAcct, engineAcct, tokenA, tokenB,
				big.NewInt(p.RateNum), big.NewInt(rateDen), liquidity)
			err = registry.Register(p.ID, venue.Registered{
				Adapter:            pool,
				Kind:               venue.KindSingleLiquidity,
				MaxSlippagePercent: p.MaxSlippagePercent,
			})
			if err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, fmt.Errorf("pool %s: unknown kind %q", p.ID, p.Kind)
		}
	}

	eng, err := engine.New(book, registry, engineAcct, cfg.AdminAddress(), params, log)
	if err != nil {
		return nil, nil, err
	}

	if len(sc.FlaggedTokens) > 0 {
		flagged := make([]common.Address, 0, len(sc.FlaggedTokens))
		for _, tok := range sc.FlaggedTokens {
			flagged = append(flagged, common.HexToAddress(tok))
		}
		eng.SetGuard(guard.NewDenylist(flagged...))
	}

	eng.SetDispatcher(bridge.NewThrottled(
		bridge.NewLogDispatcher(log), cfg.SettlementPerSecond, cfg.SettlementBurst, log))

	amount, err := parseAmount(sc.Amount)
	if err != nil {
		return nil, nil, err
	}

	run := engine.Run{
		Venues:   sc.Venues,
		Slippage: sc.Slippage,
		Amount:   amount,
		Strategy: sc.Strategy,
	}
	for _, tok := range sc.Tokens {
		run.Tokens = append(run.Tokens, common.HexToAddress(tok))
	}
	if sc.MinReturnFloor != "" && sc.MinReturnFloor != "0" {
		floor, err := parseAmount(sc.MinReturnFloor)
		if err != nil {
			return nil, nil, err
		}
		run.MinReturnFloor = floor
	}

	// Fund and approve the caller for the run's input.
	if len(run.Tokens) > 0 {
		book.Mint(run.Tokens[0], caller, amount)
		book.Approve(run.Tokens[0], caller, engineAcct, amount)
	}

	ctx := context.Background()
	if sc.DestinationChain != "" {
		rec, err := eng.ExecuteChainWithSettlement(ctx, caller, run, sc.DestinationChain)
		return rec, eng, err
	}
	rec, err := eng.ExecuteChain(ctx, caller, run)
	return rec, eng, err
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario file (YAML)")
}
