package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/TEENet-io/wrap-go/cmd"
	"github.com/TEENet-io/wrap-go/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "WRAP_CONFIG"
)

func main() {
	logconfig.ConfigInfoLogger()

	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Wrap server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Wrap server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	success := initializeViper(_config_file)
	if !success {
		return
	}

	// Make the configuration
	esc := PrepareEngineServerConfig()

	fmt.Println("Starting wrap server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartEngineServerAndWait(esc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareEngineServerConfig reads configuration variables and returns
// an EngineServerConfig.
func PrepareEngineServerConfig() *cmd.EngineServerConfig {
	return &cmd.EngineServerConfig{
		DbFilePath: viper.GetString("DB_FILE_PATH"),

		ChainNetwork:      viper.GetString("CHAIN_NETWORK"),
		InitialProofFloor: viper.GetUint64("INITIAL_PROOF_FLOOR"),

		LocalLedger:    viper.GetUint32("LOCAL_LEDGER"),
		ProtocolFeeBps: viper.GetUint32("PROTOCOL_FEE_BPS"),
		OperatorFeeBps: viper.GetUint32("OPERATOR_FEE_BPS"),

		AdminAddr:          viper.GetString("ADMIN_ADDR"),
		CustodianAddr:      viper.GetString("CUSTODIAN_ADDR"),
		CustodianAdminAddr: viper.GetString("CUSTODIAN_ADMIN_ADDR"),
		TreasuryAddr:       viper.GetString("TREASURY_ADDR"),
		OperatorAddr:       viper.GetString("OPERATOR_ADDR"),
		RelayAdminAddr:     viper.GetString("RELAY_ADMIN_ADDR"),
		BridgeAccountAddr:  viper.GetString("BRIDGE_ACCOUNT_ADDR"),
		EngineAccountAddr:  viper.GetString("ENGINE_ACCOUNT_ADDR"),

		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}
