package moderation

import (
	"context"

	"coinmod/database/schemas"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

type Tier int

const (
	TierClear Tier = iota
	Tier1
	Tier2
	Tier3
)

func (t Tier) String() string {
	switch t {
	case TierClear:
		return "clear"
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	}
	return "tier3"
}

func TierFor(count int) Tier {
	switch {
	case count <= 0:
		return TierClear
	case count == 1:
		return Tier1
	case count == 2:
		return Tier2
	}
	return Tier3
}

// targetRoles lists the managed roles a member should hold. The ban role is a
// soft hold for members at tier 3 without a payment-gated ban.
func targetRoles(cfg *schemas.AdvRoles, count int, permanentlyBanned bool) []string {
	var roles []string
	add := func(id string) {
		if id != "" {
			roles = append(roles, id)
		}
	}

	switch TierFor(count) {
	case Tier1:
		add(cfg.Adv1Role)
	case Tier2:
		add(cfg.Adv2Role)
	case Tier3:
		add(cfg.Adv3Role)
		if !permanentlyBanned {
			add(cfg.BanRole)
		}
	}
	return roles
}

// SyncRoles recomputes the member's tier from the live advertence count and
// reconciles the managed roles with it. Front-end failures are logged and left
// for the next maintenance pass.
func (e *Engine) SyncRoles(ctx context.Context, guildID, userID string) error {
	cfg, err := e.store.AdvRoles(ctx, guildID)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	managed := cfg.All()
	if len(managed) == 0 {
		return nil
	}

	count, err := e.store.CountAdvertences(ctx, guildID, userID)
	if err != nil {
		return err
	}

	banned := false
	if TierFor(count) == Tier3 {
		ban, err := e.store.PermanentBan(ctx, guildID, userID)
		if err != nil {
			return err
		}
		banned = ban != nil
	}
	target := targetRoles(cfg, count, banned)

	var held []string
	fields := []zap.Field{zap.String("guild", guildID), zap.String("user", userID)}
	if err := e.bestEffort(ctx, "member_roles", func(ctx context.Context) error {
		var err error
		held, err = e.frontend.MemberRoles(ctx, guildID, userID)
		return err
	}, fields...); err != nil {
		// most likely no longer a member
		return nil
	}

	var remove, add []string
	for _, id := range managed {
		if slices.Contains(held, id) && !slices.Contains(target, id) && !slices.Contains(remove, id) {
			remove = append(remove, id)
		}
	}
	for _, id := range target {
		if !slices.Contains(held, id) && !slices.Contains(add, id) {
			add = append(add, id)
		}
	}
	if len(remove) == 0 && len(add) == 0 {
		return nil
	}

	_ = e.bestEffort(ctx, "role_delta", func(ctx context.Context) error {
		return e.frontend.ApplyRoleDelta(ctx, guildID, userID, remove, add)
	}, append(fields, zap.Strings("remove", remove), zap.Strings("add", add))...)
	return nil
}
