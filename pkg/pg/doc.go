// Package pg connects to PostgreSQL with pgx and applies the schema with
// goose before the session store starts using it.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.MigrateFS(ctx, pool, db.Migrations, cfg, log); err != nil {
//		return err
//	}
//	checks["postgres"] = pg.Healthcheck(pool)
package pg
