// Package dispatch carries outbound side effects. Services record commands
// while a storage unit is open and hand them to the queue only after the
// unit commits, so an aborted unit never reaches the registry or the oracle.
package dispatch

// Kind discriminates outbound command types.
type Kind string

const (
	KindTransfer    Kind = "transfer"
	KindMint        Kind = "mint"
	KindBurn        Kind = "burn"
	KindRandRequest Kind = "rand_request"
)

// Command is one outbound side effect. Only the fields for its Kind are set.
type Command struct {
	Kind Kind

	// transfer
	To       string
	AssetIDs []string
	Memo     string

	// mint
	Collection  string
	Category    string
	TemplateRef string
	NewOwner    string

	// burn
	AssetID string

	// rand_request
	CorrelationID string
	SigningValue  uint64
	Callback      string
}

// Transfer builds a transfer command.
func Transfer(to string, assetIDs []string, memo string) Command {
	return Command{Kind: KindTransfer, To: to, AssetIDs: assetIDs, Memo: memo}
}

// Mint builds a mint command.
func Mint(collection, category, templateRef, newOwner string) Command {
	return Command{Kind: KindMint, Collection: collection, Category: category, TemplateRef: templateRef, NewOwner: newOwner}
}

// Burn builds a burn command.
func Burn(assetID string) Command {
	return Command{Kind: KindBurn, AssetID: assetID}
}

// RandRequest builds an oracle randomness request command.
func RandRequest(correlationID string, signingValue uint64, callback string) Command {
	return Command{Kind: KindRandRequest, CorrelationID: correlationID, SigningValue: signingValue, Callback: callback}
}

// Queue accepts committed commands for asynchronous execution.
type Queue interface {
	Enqueue(cmds ...Command)
}
