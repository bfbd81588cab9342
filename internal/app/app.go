package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/navcast/internal/clients/tefas"
	"github.com/bobmcallan/navcast/internal/clients/yahoo"
	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/services/estimate"
	"github.com/bobmcallan/navcast/internal/services/fund"
	"github.com/bobmcallan/navcast/internal/services/price"
	"github.com/bobmcallan/navcast/internal/services/quote"
	"github.com/bobmcallan/navcast/internal/storage"
)

// App holds all initialized services, clients, and the MCP server.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Storage           interfaces.StorageManager
	TefasClient       interfaces.TefasClient
	QuoteClient       interfaces.QuoteClient
	PriceResolver     interfaces.OfficialPriceResolver
	ReturnResolver    interfaces.ReturnResolver
	EstimationService interfaces.EstimationService
	FundService       interfaces.FundService
	Metrics           *common.Metrics
	MCPServer         *server.MCPServer
	StartupTime       time.Time

	scheduler *cron.Cron
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, NAVCAST_CONFIG, the binary
// directory and finally config/navcast.toml.
func resolveConfigPath(configPath, binDir string) string {
	if configPath == "" {
		configPath = os.Getenv("NAVCAST_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "navcast.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/navcast.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and wires storage, clients, services and the MCP server.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()
	config, err := common.LoadConfig(resolveConfigPath(configPath, binDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig wires an App from an already loaded configuration.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	tefasCfg := config.Clients.Tefas
	tefasClient := tefas.NewClient(
		tefas.WithBaseURL(tefasCfg.BaseURL),
		tefas.WithLogger(logger),
		tefas.WithRateLimit(tefasCfg.RateLimit),
		tefas.WithTimeout(tefasCfg.GetTimeout()),
	)

	yahooCfg := config.Clients.Yahoo
	quoteClient := yahoo.NewClient(
		yahoo.WithBaseURL(yahooCfg.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(yahooCfg.RateLimit),
		yahoo.WithTimeout(yahooCfg.GetTimeout()),
		yahoo.WithBreaker(yahoo.BreakerConfig{
			MaxRequests: yahooCfg.Breaker.MaxRequests,
			Interval:    yahooCfg.Breaker.GetInterval(),
			Timeout:     yahooCfg.Breaker.GetTimeout(),
		}),
	)

	loc := config.Estimation.Location()
	policy := config.Estimation.ScanPolicy()
	metrics := common.NewMetrics()

	priceResolver := price.NewService(tefasClient, storageManager.OverrideStorage(), logger,
		price.WithPolicy(policy),
		price.WithLocation(loc),
	)
	returnResolver := quote.NewService(quoteClient, logger,
		quote.WithWindow(yahooCfg.Interval, yahooCfg.Range),
		quote.WithFXSymbol(config.Estimation.FXSymbol),
	)
	pipeline := estimate.NewService(priceResolver, returnResolver,
		estimate.NewAggregator(config.Estimation.WeightTolerance), policy, logger)
	fundService := fund.NewService(config.Funds, pipeline, storageManager, logger,
		fund.WithMetrics(metrics),
		fund.WithLocation(loc),
	)

	for _, f := range config.Funds {
		for _, w := range f.Warnings {
			logger.Warn().Str("fund", f.Code).Msg(w)
		}
	}

	mcpServer := server.NewMCPServer(
		"navcast",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:            config,
		Logger:            logger,
		Storage:           storageManager,
		TefasClient:       tefasClient,
		QuoteClient:       quoteClient,
		PriceResolver:     priceResolver,
		ReturnResolver:    returnResolver,
		EstimationService: pipeline,
		FundService:       fundService,
		Metrics:           metrics,
		MCPServer:         mcpServer,
		StartupTime:       startupStart,
	}

	a.registerTools()

	logger.Info().
		Int("funds", len(config.Funds)).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close storage.
func (a *App) Close() {
	a.StopScheduler()
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	fs := a.FundService
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createListFundsTool(), handleListFunds(fs))
	s.AddTool(createEstimateFundTool(), handleEstimateFund(fs, logger))
	s.AddTool(createGetManualPriceTool(), handleGetManualPrice(fs))
	s.AddTool(createSetManualPriceTool(), handleSetManualPrice(fs, logger))
	s.AddTool(createClearManualPriceTool(), handleClearManualPrice(fs, logger))
}
