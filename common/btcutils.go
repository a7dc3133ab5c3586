package common

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

func IsValidBtcAddress(address string, cfg *chaincfg.Params) bool {
	if _, err := btcutil.DecodeAddress(address, cfg); err != nil {
		return false
	}

	return true
}

// IsValidDestScript checks that the destination script decodes on the
// given chain AND matches the claimed script type. The engine stores
// the script verbatim; this is the only validation it performs.
func IsValidDestScript(script string, scriptType string, cfg *chaincfg.Params) bool {
	addr, err := btcutil.DecodeAddress(script, cfg)
	if err != nil {
		return false
	}

	switch scriptType {
	case "p2pkh":
		_, ok := addr.(*btcutil.AddressPubKeyHash)
		return ok
	case "p2wpkh":
		_, ok := addr.(*btcutil.AddressWitnessPubKeyHash)
		return ok
	case "p2tr":
		_, ok := addr.(*btcutil.AddressTaproot)
		return ok
	default:
		return false
	}
}

func MainNetParams() *chaincfg.Params {
	return &chaincfg.MainNetParams
}

// NetworkParams maps a configured network name to chain params.
// Unknown names fall back to regtest, which is what the simulated
// server mode runs on.
func NetworkParams(name string) *chaincfg.Params {
	switch name {
	case "mainnet":
		return &chaincfg.MainNetParams
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params
	default:
		return &chaincfg.RegressionNetParams
	}
}
