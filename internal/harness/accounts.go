package harness

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/ombu/internal/model"
)

// Named accounts use digit-only addresses so their checksummed form is
// identical to their lowercase form in golden files.
var accounts = map[string]model.Address{
	"admin": common.HexToAddress("0x9999999999999999999999999999999999999999"),
	"alice": common.HexToAddress("0x1111111111111111111111111111111111111111"),
	"bob":   common.HexToAddress("0x2222222222222222222222222222222222222222"),
	"carol": common.HexToAddress("0x3333333333333333333333333333333333333333"),
	"dave":  common.HexToAddress("0x4444444444444444444444444444444444444444"),
}

// ForumAddress is the account the harness forum acts as towards its oracle.
var ForumAddress = common.HexToAddress("0x000000000000000000000000000000000000f0f0")

// OracleAddress is recorded by init when the step gives no oracle argument.
var OracleAddress = common.HexToAddress("0x5555555555555555555555555555555555555555")

// ResolveAccount maps a named account or hex address to an address.
func ResolveAccount(s string) (model.Address, error) {
	if a, ok := accounts[strings.ToLower(s)]; ok {
		return a, nil
	}
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	return model.Address{}, fmt.Errorf("unknown account %q", s)
}
