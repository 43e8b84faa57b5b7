package cli

import (
	"context"
	"os"
	"strconv"
	"time"
)

const unlockTimeLayout = time.RFC3339

func (a *App) promptInt64(prompt string) (int64, error) {
	text, err := GetSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(text, 10, 64)
}

// CreatePack registers a pack definition. A zero pack id lets the server
// assign the next one.
func (a *App) CreatePack(ctx context.Context) error {
	packID, err := a.promptInt64("Pack id (0 for auto)")
	if err != nil {
		return err
	}
	collection, err := GetSimpleText(a.reader, "Collection", os.Stdout)
	if err != nil {
		return err
	}
	unlockText, err := GetSimpleText(a.reader, "Unlock time (RFC3339, empty for now)", os.Stdout)
	if err != nil {
		return err
	}
	unlockTime := time.Now()
	if unlockText != "" {
		unlockTime, err = time.Parse(unlockTimeLayout, unlockText)
		if err != nil {
			return err
		}
	}
	templateRef, err := GetSimpleText(a.reader, "Sealed pack template", os.Stdout)
	if err != nil {
		return err
	}
	displayData, err := GetSimpleText(a.reader, "Display data", os.Stdout)
	if err != nil {
		return err
	}

	pack, err := a.api.CreatePack(ctx, packID, collection, unlockTime, templateRef, displayData)
	if err != nil {
		return err
	}
	printlnFn("Created pack", pack.PackID)
	return nil
}

func (a *App) ShowPack(ctx context.Context) error {
	packID, err := a.promptInt64("Pack id")
	if err != nil {
		return err
	}

	pack, err := a.api.GetPack(ctx, packID)
	if err != nil {
		return err
	}
	printlnFn("Pack", pack.PackID, "collection", pack.Collection, "template", pack.TemplateRef, "unlocks", pack.UnlockTime)
	return nil
}

func (a *App) AddEntry(ctx context.Context) error {
	packID, err := a.promptInt64("Pack id")
	if err != nil {
		return err
	}
	bundle, err := GetBundle(a.reader, os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.InsertEntry(ctx, packID, bundle); err != nil {
		return err
	}
	printlnFn("Entry added")
	return nil
}

func (a *App) GenerateEntries(ctx context.Context) error {
	packID, err := a.promptInt64("Pack id")
	if err != nil {
		return err
	}
	category, err := GetSimpleText(a.reader, "Category", os.Stdout)
	if err != nil {
		return err
	}
	size, err := a.promptInt64("Bundle size")
	if err != nil {
		return err
	}

	count, err := a.api.GenerateEntries(ctx, packID, category, int(size))
	if err != nil {
		return err
	}
	printlnFn("Generated", count, "entries")
	return nil
}

func (a *App) ShowAllocation(ctx context.Context) error {
	itemID, err := GetSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}

	alloc, err := a.api.GetAllocation(ctx, itemID)
	if err != nil {
		return err
	}
	printlnFn("Allocation", alloc.ItemID, "pack", alloc.PackID, "requester", alloc.Requester, "status", alloc.Status, "bundle", alloc.Bundle)
	return nil
}

func (a *App) Retry(ctx context.Context) error {
	itemID, err := GetSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.RetryAllocation(ctx, itemID); err != nil {
		return err
	}
	printlnFn("Randomness re-requested")
	return nil
}

func (a *App) Claim(ctx context.Context) error {
	itemID, err := GetSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.ClaimAllocation(ctx, itemID); err != nil {
		return err
	}
	printlnFn("Claimed")
	return nil
}

func (a *App) Approve(ctx context.Context) error {
	itemID, err := GetSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}
	requester, err := GetSimpleText(a.reader, "Requester", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.ApproveStaged(ctx, itemID, requester); err != nil {
		return err
	}
	printlnFn("Approved")
	return nil
}

func (a *App) Settle(ctx context.Context) error {
	itemID, err := GetSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}
	producedTemplate, err := GetSimpleText(a.reader, "Produced template", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.SettleStaged(ctx, itemID, producedTemplate); err != nil {
		return err
	}
	printlnFn("Settled")
	return nil
}

func (a *App) Withdraw(ctx context.Context) error {
	itemID, err := GetSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.WithdrawStaged(ctx, itemID); err != nil {
		return err
	}
	printlnFn("Withdrawn")
	return nil
}

func (a *App) RemoveAll(ctx context.Context) error {
	scope, err := GetSimpleText(a.reader, "Scope (packs, allocations, availability, staged, audit)", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.RemoveAll(ctx, scope); err != nil {
		return err
	}
	printlnFn("Removed", scope)
	return nil
}

func (a *App) Export(ctx context.Context) error {
	url, err := a.api.ExportAudit(ctx)
	if err != nil {
		return err
	}
	printlnFn("Export available at:", url)
	return nil
}
