package infra

import (
	"fmt"

	"notaentrada/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection, migrates every table of the engine
// and its collaborators, then applies the idempotent SQL patches GORM tags
// cannot express (check constraints, partial indexes, the timeline guard).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the schema. Integration tests call it on a
// fresh container database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.IncomingNote{},
		&model.ProductLine{},
		&model.TimelineEvent{},
		&model.NotePayment{},
		&model.SupplierCreditNote{},
		&model.StockUnit{},
		&model.FinanceEntry{},
		&model.RepairBatch{},
		&model.RepairUnit{},
		&model.OutboxMessage{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL. Each statement checks for the object
// first so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"product line quantity and battery checks", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_produtos_quantidade') THEN
    ALTER TABLE nota_entrada_produtos
      ADD CONSTRAINT chk_produtos_quantidade CHECK (quantity >= 1);
  END IF;
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_produtos_bateria') THEN
    ALTER TABLE nota_entrada_produtos
      ADD CONSTRAINT chk_produtos_bateria CHECK (battery_health BETWEEN 0 AND 100);
  END IF;
END $$`},
		// IMEI lookups only ever target single-unit device lines.
		{"partial index on product line imei", `
CREATE INDEX IF NOT EXISTS idx_produtos_imei_set
    ON nota_entrada_produtos (imei)
    WHERE imei IS NOT NULL`},
		{"pending outbox index", `
CREATE INDEX IF NOT EXISTS idx_outbox_pendentes
    ON nota_entrada_outbox (id)
    WHERE sent_at IS NULL`},
		{"open notes index", `
CREATE INDEX IF NOT EXISTS idx_notas_entrada_abertas
    ON notas_entrada (urgent DESC, created_at DESC)
    WHERE status NOT IN ('Finalized', 'WithDivergence')`},
		// Timeline rows are immutable.
		{"timeline immutability guard", `
CREATE OR REPLACE FUNCTION nota_entrada_timeline_immutable() RETURNS trigger AS $$
BEGIN
  RAISE EXCEPTION 'nota_entrada_timeline is append-only';
END;
$$ LANGUAGE plpgsql`},
		{"timeline immutability trigger", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_nota_entrada_timeline_immutable') THEN
    CREATE TRIGGER trg_nota_entrada_timeline_immutable
      BEFORE UPDATE OR DELETE ON nota_entrada_timeline
      FOR EACH ROW EXECUTE FUNCTION nota_entrada_timeline_immutable();
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
