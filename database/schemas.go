package database

import (
	"context"

	"coinmod/database/schemas"

	"github.com/uptrace/bun"
)

type index struct {
	model   any
	name    string
	columns []string
}

func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*schemas.Guild)(nil),
		(*schemas.AdvRoles)(nil),
		(*schemas.StaffRole)(nil),
		(*schemas.DenyWord)(nil),
		(*schemas.User)(nil),
		(*schemas.Advertence)(nil),
		(*schemas.Invoice)(nil),
		(*schemas.PermanentBan)(nil),
		(*schemas.RepVote)(nil),
		(*schemas.Message)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().IfNotExists().Model(model).Exec(ctx); err != nil {
			return err
		}
	}

	indexes := []index{
		{(*schemas.Advertence)(nil), "advs_guild_user_idx", []string{"guild_id", "user_id"}},
		{(*schemas.Advertence)(nil), "advs_created_at_idx", []string{"created_at"}},
		{(*schemas.Invoice)(nil), "invoices_guild_user_paid_idx", []string{"guild_id", "user_id", "paid"}},
		{(*schemas.Message)(nil), "messages_guild_user_idx", []string{"guild_id", "user_id", "created_at"}},
		{(*schemas.Message)(nil), "messages_message_id_idx", []string{"message_id"}},
		{(*schemas.PermanentBan)(nil), "bans_user_idx", []string{"user_id"}},
	}

	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().IfNotExists().Model(idx.model).Index(idx.name).Column(idx.columns...).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
