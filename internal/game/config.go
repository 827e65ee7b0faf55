package game

// Config is the one-time deployment configuration of a dealer.
type Config struct {
	// Owner is the only identity allowed to run mutating operations.
	Owner string `json:"owner"`
	// ContractAddress is the audience that viewer permits must name.
	ContractAddress string `json:"contract_address"`
}
