// Package registry talks to the external asset registry that owns the
// collectible items. The state machine never mutates item ownership
// directly; it observes custody via incoming transfer notifications and
// issues transfer, mint and burn commands back through this client.
package registry

import "context"

// Asset is the registry's view of a single collectible item.
type Asset struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Collection  string `json:"collection"`
	Category    string `json:"category"`
	TemplateRef string `json:"template_ref"`
}

// Collection describes a named collection and the accounts allowed to
// administer it.
type Collection struct {
	Name               string   `json:"name"`
	AuthorizedAccounts []string `json:"authorized_accounts"`
}

type Client interface {
	GetAsset(ctx context.Context, assetID string) (*Asset, error)
	GetCollection(ctx context.Context, name string) (*Collection, error)
	// ListOwnedAssets returns every asset currently held by the account.
	ListOwnedAssets(ctx context.Context, account string) ([]*Asset, error)
	Transfer(ctx context.Context, to string, assetIDs []string, memo string) error
	Mint(ctx context.Context, collection, category, templateRef, newOwner string) error
	Burn(ctx context.Context, assetID string) error
}
