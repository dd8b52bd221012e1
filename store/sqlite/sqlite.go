/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces using SQLite. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  engine.RateCardCatalog: Rate cards and their owned accessorial rates
  engine.TripStore:       Dispatched trips and arrival reports
  payroll.TripPayStore:   Trip pay records
  payroll.PayPeriodStore: Pay periods
  payroll.CutPayStore:    Cut pay records
  payroll.AuditLog:       Append-only transition history

UNIQUENESS ENFORCEMENT:
  Two invariants live in the schema, not in application checks:
  - UNIQUE(trip_id, pay_period_id) on trip_pays: one pay per trip per
    period. Concurrent creates race at the index; the loser maps to
    engine.ErrConcurrentModification.
  - A partial unique index on pay_periods(status) WHERE status='OPEN':
    at most one OPEN period at a time.

OWNED ROWS:
  accessorial_rates reference rate_cards with ON DELETE CASCADE. A card's
  supplementary rates live and die with the card.

APPEND-ONLY ENFORCEMENT:
  pay_audit_log has no UPDATE or DELETE statements anywhere in this
  package. History is never rewritten.

AMOUNT ENCODING:
  Monetary amounts and mileage are stored as decimal TEXT, never REAL.
  Dates are day-granular YYYY-MM-DD; timestamps are RFC3339.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payengine.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go and payroll/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"

	"github.com/freightline/pay-engine/engine"
	"github.com/freightline/pay-engine/payroll"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Rate cards (immutable-until-superseded)
	CREATE TABLE IF NOT EXISTS rate_cards (
		id TEXT PRIMARY KEY,
		rate_type TEXT NOT NULL,
		driver_id TEXT,
		carrier_id TEXT,
		linehaul_profile_id TEXT,
		origin_terminal_id TEXT,
		destination_terminal_id TEXT,
		rate_method TEXT NOT NULL,
		basis_json TEXT NOT NULL,
		accessorials_json TEXT,
		cut_pay_json TEXT,
		priority BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		effective_date TEXT NOT NULL,
		expiration_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_cards_active_effective
		ON rate_cards(active, effective_date);
	CREATE INDEX IF NOT EXISTS idx_rate_cards_type
		ON rate_cards(rate_type);

	-- Supplementary charges owned by a card: cascade on card deletion
	CREATE TABLE IF NOT EXISTS accessorial_rates (
		id TEXT PRIMARY KEY,
		rate_card_id TEXT NOT NULL REFERENCES rate_cards(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		method TEXT NOT NULL,
		amount TEXT NOT NULL,
		min_charge TEXT,
		max_charge TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_accessorial_rates_card
		ON accessorial_rates(rate_card_id);

	-- Dispatched trips
	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		carrier_id TEXT,
		linehaul_profile_id TEXT,
		origin_terminal TEXT,
		destination_terminal TEXT,
		dispatch_date TEXT NOT NULL,
		trailer_config TEXT NOT NULL,
		miles TEXT,
		work_hours TEXT,
		stop_hours TEXT,
		linked_revenue TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_trips_dispatch_date
		ON trips(dispatch_date);
	CREATE INDEX IF NOT EXISTS idx_trips_driver
		ON trips(driver_id);

	-- Arrival reports (one per trip)
	CREATE TABLE IF NOT EXISTS trip_reports (
		trip_id TEXT PRIMARY KEY,
		drop_and_hook_count INTEGER NOT NULL DEFAULT 0,
		chain_up_cycles INTEGER NOT NULL DEFAULT 0,
		wait_time_start TEXT,
		wait_time_end TEXT,
		wait_time_reason TEXT,
		notes TEXT,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		pay_approved BOOLEAN NOT NULL DEFAULT FALSE
	);

	-- Pay periods
	CREATE TABLE IF NOT EXISTS pay_periods (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		export_batch_id TEXT,
		closed_at TEXT,
		locked_at TEXT,
		exported_at TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one OPEN period at a time
	CREATE UNIQUE INDEX IF NOT EXISTS idx_pay_periods_single_open
		ON pay_periods(status) WHERE status = 'OPEN';
	CREATE INDEX IF NOT EXISTS idx_pay_periods_window
		ON pay_periods(start_date, end_date);

	-- Trip pays
	CREATE TABLE IF NOT EXISTS trip_pays (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL,
		pay_period_id TEXT NOT NULL,
		driver_id TEXT NOT NULL,
		rate_card_id TEXT,
		base_pay TEXT NOT NULL,
		mileage_pay TEXT NOT NULL,
		accessorial_pay TEXT NOT NULL,
		bonus_pay TEXT NOT NULL,
		deductions TEXT NOT NULL,
		status TEXT NOT NULL,
		calculated_at TEXT,
		reviewed_at TEXT,
		approved_at TEXT,
		paid_at TEXT,
		exported_at TEXT,
		reviewed_by TEXT,
		approved_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: one trip pay per trip per period; concurrent creates race
	-- at this index, not in application code
	CREATE UNIQUE INDEX IF NOT EXISTS idx_trip_pays_trip_period
		ON trip_pays(trip_id, pay_period_id);
	CREATE INDEX IF NOT EXISTS idx_trip_pays_period
		ON trip_pays(pay_period_id);
	CREATE INDEX IF NOT EXISTS idx_trip_pays_status
		ON trip_pays(status);

	-- Cut pays
	CREATE TABLE IF NOT EXISTS cut_pays (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		pay_period_id TEXT NOT NULL,
		rate_card_id TEXT,
		hours_requested TEXT,
		miles_requested TEXT,
		trailer_config TEXT NOT NULL,
		reason_code TEXT NOT NULL,
		notes TEXT,
		base_pay TEXT NOT NULL,
		status TEXT NOT NULL,
		calculated_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cut_pays_period
		ON cut_pays(pay_period_id);

	-- Audit log (append-only: no UPDATE, no DELETE)
	CREATE TABLE IF NOT EXISTS pay_audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		trip_pay_id TEXT,
		period_id TEXT,
		from_status TEXT,
		to_status TEXT,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pay_audit_trip_pay
		ON pay_audit_log(trip_pay_id);
	CREATE INDEX IF NOT EXISTS idx_pay_audit_period
		ON pay_audit_log(period_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RATE CARD CATALOG (engine.RateCardCatalog interface)
// =============================================================================

// basisBlob is the JSON encoding of a card's rate basis. One flat shape for
// all methods; decoding switches on the card's rate_method column.
type basisBlob struct {
	PerSingleMile *string `json:"per_single_mile,omitempty"`
	PerDoubleMile *string `json:"per_double_mile,omitempty"`
	PerTripleMile *string `json:"per_triple_mile,omitempty"`
	MinPay        *string `json:"min_pay,omitempty"`
	MaxPay        *string `json:"max_pay,omitempty"`

	Amount  *string `json:"amount,omitempty"`
	PerTrip *string `json:"per_trip,omitempty"`

	PerWorkHour *string `json:"per_work_hour,omitempty"`
	PerStopHour *string `json:"per_stop_hour,omitempty"`

	Percent *string `json:"percent,omitempty"`
}

type accessorialsBlob struct {
	PerSingleDropHook *string `json:"per_single_drop_hook,omitempty"`
	PerDoubleDropHook *string `json:"per_double_drop_hook,omitempty"`
	PerTripleDropHook *string `json:"per_triple_drop_hook,omitempty"`
	PerChainUp        *string `json:"per_chain_up,omitempty"`
	PerWaitHour       *string `json:"per_wait_hour,omitempty"`
	FuelSurchargePct  *string `json:"fuel_surcharge_pct,omitempty"`
}

type cutPayBlob struct {
	PerWorkHour      *string `json:"per_work_hour,omitempty"`
	PerSingleCutMile *string `json:"per_single_cut_mile,omitempty"`
	PerDoubleCutMile *string `json:"per_double_cut_mile,omitempty"`
	PerTripleCutMile *string `json:"per_triple_cut_mile,omitempty"`
	PerCutTrip       *string `json:"per_cut_trip,omitempty"`
}

// SaveCard persists a new card and its owned accessorial rates atomically.
func (s *Store) SaveCard(ctx context.Context, card *engine.RateCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	basisJSON, err := marshalBasis(card.Basis)
	if err != nil {
		return fmt.Errorf("failed to encode rate basis: %w", err)
	}
	accJSON, err := json.Marshal(accessorialsToBlob(card.Accessorials))
	if err != nil {
		return fmt.Errorf("failed to encode accessorials: %w", err)
	}
	cutJSON, err := json.Marshal(cutPayToBlob(card.CutPay))
	if err != nil {
		return fmt.Errorf("failed to encode cut pay terms: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rate_cards
		(id, rate_type, driver_id, carrier_id, linehaul_profile_id,
		 origin_terminal_id, destination_terminal_id, rate_method, basis_json,
		 accessorials_json, cut_pay_json, priority, active, effective_date,
		 expiration_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(card.ID),
		string(card.Type),
		nullDriverID(card.DriverID),
		nullCarrierID(card.CarrierID),
		nullLinehaulID(card.LinehaulProfileID),
		nullTerminalID(card.OriginTerminalID),
		nullTerminalID(card.DestinationTerminalID),
		string(card.Method),
		string(basisJSON),
		string(accJSON),
		string(cutJSON),
		card.Priority,
		card.Active,
		card.EffectiveDate.String(),
		nullDate(card.ExpirationDate),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate card: %w", err)
	}

	for _, ar := range card.AccessorialRates {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO accessorial_rates
			(id, rate_card_id, type, method, amount, min_charge, max_charge)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ar.ID,
			string(card.ID),
			string(ar.Type),
			string(ar.Method),
			ar.Amount.Value.String(),
			nullMoney(ar.MinCharge),
			nullMoney(ar.MaxCharge),
		)
		if err != nil {
			return fmt.Errorf("failed to insert accessorial rate: %w", err)
		}
	}

	return tx.Commit()
}

// GetCard returns a card by id, or engine.ErrRateNotFound.
func (s *Store) GetCard(ctx context.Context, id engine.RateCardID) (*engine.RateCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectCardQuery+` WHERE id = ?`, string(id))
	card, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rate card %s: %w", id, engine.ErrRateNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadAccessorialRates(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// ActiveCards returns every active card effective on asOf.
func (s *Store) ActiveCards(ctx context.Context, asOf engine.Date) ([]*engine.RateCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectCardQuery+`
		WHERE active = TRUE
		  AND effective_date <= ?
		  AND (expiration_date IS NULL OR expiration_date >= ?)
		ORDER BY id`,
		asOf.String(), asOf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query active rate cards: %w", err)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, err
	}
	for _, card := range cards {
		if err := s.loadAccessorialRates(ctx, card); err != nil {
			return nil, err
		}
	}
	return cards, nil
}

// DeactivateCard supersedes a card. The only in-place mutation of a card.
func (s *Store) DeactivateCard(ctx context.Context, id engine.RateCardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE rate_cards SET active = FALSE WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to deactivate rate card: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("rate card %s: %w", id, engine.ErrRateNotFound)
	}
	return nil
}

// ListCards returns all cards, newest effective date first.
func (s *Store) ListCards(ctx context.Context) ([]*engine.RateCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectCardQuery+` ORDER BY effective_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate cards: %w", err)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, err
	}
	for _, card := range cards {
		if err := s.loadAccessorialRates(ctx, card); err != nil {
			return nil, err
		}
	}
	return cards, nil
}

const selectCardQuery = `
	SELECT id, rate_type, driver_id, carrier_id, linehaul_profile_id,
	       origin_terminal_id, destination_terminal_id, rate_method,
	       basis_json, accessorials_json, cut_pay_json, priority, active,
	       effective_date, expiration_date
	FROM rate_cards`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*engine.RateCard, error) {
	var (
		card                                              engine.RateCard
		rateType, rateMethod, basisJSON                   string
		driverID, carrierID, linehaulID, originID, destID sql.NullString
		accJSON, cutJSON, effectiveDate, expirationDate   sql.NullString
	)
	err := row.Scan(&card.ID, &rateType, &driverID, &carrierID, &linehaulID,
		&originID, &destID, &rateMethod, &basisJSON, &accJSON, &cutJSON,
		&card.Priority, &card.Active, &effectiveDate, &expirationDate)
	if err != nil {
		return nil, err
	}

	card.Type = engine.RateType(rateType)
	card.Method = engine.RateMethod(rateMethod)

	if driverID.Valid {
		id := engine.DriverID(driverID.String)
		card.DriverID = &id
	}
	if carrierID.Valid {
		id := engine.CarrierID(carrierID.String)
		card.CarrierID = &id
	}
	if linehaulID.Valid {
		id := engine.LinehaulProfileID(linehaulID.String)
		card.LinehaulProfileID = &id
	}
	if originID.Valid {
		id := engine.TerminalID(originID.String)
		card.OriginTerminalID = &id
	}
	if destID.Valid {
		id := engine.TerminalID(destID.String)
		card.DestinationTerminalID = &id
	}

	basis, err := unmarshalBasis(card.Method, basisJSON)
	if err != nil {
		return nil, fmt.Errorf("rate card %s: %w", card.ID, err)
	}
	card.Basis = basis

	if accJSON.Valid && accJSON.String != "" {
		terms, err := blobToAccessorials(accJSON.String)
		if err != nil {
			return nil, fmt.Errorf("rate card %s: %w", card.ID, err)
		}
		card.Accessorials = terms
	}
	if cutJSON.Valid && cutJSON.String != "" {
		terms, err := blobToCutPay(cutJSON.String)
		if err != nil {
			return nil, fmt.Errorf("rate card %s: %w", card.ID, err)
		}
		card.CutPay = terms
	}

	if effectiveDate.Valid {
		d, err := parseDate(effectiveDate.String)
		if err != nil {
			return nil, fmt.Errorf("rate card %s: bad effective date: %w", card.ID, err)
		}
		card.EffectiveDate = d
	}
	if expirationDate.Valid {
		d, err := parseDate(expirationDate.String)
		if err != nil {
			return nil, fmt.Errorf("rate card %s: bad expiration date: %w", card.ID, err)
		}
		card.ExpirationDate = &d
	}

	return &card, nil
}

func scanCards(rows *sql.Rows) ([]*engine.RateCard, error) {
	var cards []*engine.RateCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (s *Store) loadAccessorialRates(ctx context.Context, card *engine.RateCard) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, method, amount, min_charge, max_charge
		FROM accessorial_rates WHERE rate_card_id = ? ORDER BY type`,
		string(card.ID))
	if err != nil {
		return fmt.Errorf("failed to query accessorial rates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ar                   engine.AccessorialRate
			arType, arMethod     string
			amount               string
			minCharge, maxCharge sql.NullString
		)
		if err := rows.Scan(&ar.ID, &arType, &arMethod, &amount, &minCharge, &maxCharge); err != nil {
			return err
		}
		ar.RateCardID = card.ID
		ar.Type = engine.AccessorialType(arType)
		ar.Method = engine.RateMethod(arMethod)
		if ar.Amount, err = parseMoney(amount); err != nil {
			return fmt.Errorf("accessorial rate %s: %w", ar.ID, err)
		}
		if ar.MinCharge, err = parseNullMoney(minCharge); err != nil {
			return err
		}
		if ar.MaxCharge, err = parseNullMoney(maxCharge); err != nil {
			return err
		}
		card.AccessorialRates = append(card.AccessorialRates, ar)
	}
	return rows.Err()
}

// =============================================================================
// BASIS ENCODING
// =============================================================================

func marshalBasis(basis engine.RateBasis) ([]byte, error) {
	var blob basisBlob
	switch b := basis.(type) {
	case engine.PerMileBasis:
		blob.PerSingleMile = moneyStr(b.PerSingleMile)
		blob.PerDoubleMile = moneyStr(b.PerDoubleMile)
		blob.PerTripleMile = moneyStr(b.PerTripleMile)
		blob.MinPay = optMoneyStr(b.MinPay)
		blob.MaxPay = optMoneyStr(b.MaxPay)
	case engine.FlatRateBasis:
		blob.Amount = moneyStr(b.Amount)
		blob.PerTrip = optMoneyStr(b.PerTrip)
	case engine.HourlyBasis:
		blob.PerWorkHour = moneyStr(b.PerWorkHour)
		blob.PerStopHour = moneyStr(b.PerStopHour)
	case engine.PercentageBasis:
		s := b.Percent.String()
		blob.Percent = &s
	default:
		return nil, fmt.Errorf("unknown rate basis %T", basis)
	}
	return json.Marshal(blob)
}

func unmarshalBasis(method engine.RateMethod, raw string) (engine.RateBasis, error) {
	var blob basisBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil, fmt.Errorf("failed to decode rate basis: %w", err)
	}

	switch method {
	case engine.MethodPerMile:
		b := engine.PerMileBasis{}
		var err error
		if b.PerSingleMile, err = strMoney(blob.PerSingleMile); err != nil {
			return nil, err
		}
		if b.PerDoubleMile, err = strMoney(blob.PerDoubleMile); err != nil {
			return nil, err
		}
		if b.PerTripleMile, err = strMoney(blob.PerTripleMile); err != nil {
			return nil, err
		}
		if b.MinPay, err = strOptMoney(blob.MinPay); err != nil {
			return nil, err
		}
		if b.MaxPay, err = strOptMoney(blob.MaxPay); err != nil {
			return nil, err
		}
		return b, nil
	case engine.MethodFlatRate:
		b := engine.FlatRateBasis{}
		var err error
		if b.Amount, err = strMoney(blob.Amount); err != nil {
			return nil, err
		}
		if b.PerTrip, err = strOptMoney(blob.PerTrip); err != nil {
			return nil, err
		}
		return b, nil
	case engine.MethodHourly:
		b := engine.HourlyBasis{}
		var err error
		if b.PerWorkHour, err = strMoney(blob.PerWorkHour); err != nil {
			return nil, err
		}
		if b.PerStopHour, err = strMoney(blob.PerStopHour); err != nil {
			return nil, err
		}
		return b, nil
	case engine.MethodPercentage:
		if blob.Percent == nil {
			return nil, fmt.Errorf("percentage basis missing percent")
		}
		pct, err := decimal.NewFromString(*blob.Percent)
		if err != nil {
			return nil, fmt.Errorf("bad percent %q: %w", *blob.Percent, err)
		}
		return engine.PercentageBasis{Percent: pct}, nil
	}
	return nil, fmt.Errorf("unknown rate method %q", method)
}

func accessorialsToBlob(t engine.AccessorialTerms) accessorialsBlob {
	blob := accessorialsBlob{
		PerSingleDropHook: optMoneyStr(t.PerSingleDropHook),
		PerDoubleDropHook: optMoneyStr(t.PerDoubleDropHook),
		PerTripleDropHook: optMoneyStr(t.PerTripleDropHook),
		PerChainUp:        optMoneyStr(t.PerChainUp),
		PerWaitHour:       optMoneyStr(t.PerWaitHour),
	}
	if t.FuelSurchargePct != nil {
		s := t.FuelSurchargePct.String()
		blob.FuelSurchargePct = &s
	}
	return blob
}

func blobToAccessorials(raw string) (engine.AccessorialTerms, error) {
	var blob accessorialsBlob
	var terms engine.AccessorialTerms
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return terms, fmt.Errorf("failed to decode accessorials: %w", err)
	}
	var err error
	if terms.PerSingleDropHook, err = strOptMoney(blob.PerSingleDropHook); err != nil {
		return terms, err
	}
	if terms.PerDoubleDropHook, err = strOptMoney(blob.PerDoubleDropHook); err != nil {
		return terms, err
	}
	if terms.PerTripleDropHook, err = strOptMoney(blob.PerTripleDropHook); err != nil {
		return terms, err
	}
	if terms.PerChainUp, err = strOptMoney(blob.PerChainUp); err != nil {
		return terms, err
	}
	if terms.PerWaitHour, err = strOptMoney(blob.PerWaitHour); err != nil {
		return terms, err
	}
	if blob.FuelSurchargePct != nil {
		pct, err := decimal.NewFromString(*blob.FuelSurchargePct)
		if err != nil {
			return terms, fmt.Errorf("bad fuel surcharge pct: %w", err)
		}
		terms.FuelSurchargePct = &pct
	}
	return terms, nil
}

func cutPayToBlob(t engine.CutPayTerms) cutPayBlob {
	return cutPayBlob{
		PerWorkHour:      optMoneyStr(t.PerWorkHour),
		PerSingleCutMile: optMoneyStr(t.PerSingleCutMile),
		PerDoubleCutMile: optMoneyStr(t.PerDoubleCutMile),
		PerTripleCutMile: optMoneyStr(t.PerTripleCutMile),
		PerCutTrip:       optMoneyStr(t.PerCutTrip),
	}
}

func blobToCutPay(raw string) (engine.CutPayTerms, error) {
	var blob cutPayBlob
	var terms engine.CutPayTerms
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return terms, fmt.Errorf("failed to decode cut pay terms: %w", err)
	}
	var err error
	if terms.PerWorkHour, err = strOptMoney(blob.PerWorkHour); err != nil {
		return terms, err
	}
	if terms.PerSingleCutMile, err = strOptMoney(blob.PerSingleCutMile); err != nil {
		return terms, err
	}
	if terms.PerDoubleCutMile, err = strOptMoney(blob.PerDoubleCutMile); err != nil {
		return terms, err
	}
	if terms.PerTripleCutMile, err = strOptMoney(blob.PerTripleCutMile); err != nil {
		return terms, err
	}
	if terms.PerCutTrip, err = strOptMoney(blob.PerCutTrip); err != nil {
		return terms, err
	}
	return terms, nil
}

// =============================================================================
// TRIP STORE (engine.TripStore interface)
// =============================================================================

// SaveTrip upserts a dispatched trip. Arrival updates the measured facts;
// the dispatch scope fields never change after creation.
func (s *Store) SaveTrip(ctx context.Context, trip *engine.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trips
		(id, driver_id, carrier_id, linehaul_profile_id, origin_terminal,
		 destination_terminal, dispatch_date, trailer_config, miles,
		 work_hours, stop_hours, linked_revenue)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 miles = excluded.miles,
		 work_hours = excluded.work_hours,
		 stop_hours = excluded.stop_hours,
		 linked_revenue = excluded.linked_revenue`,
		string(trip.ID),
		string(trip.DriverID),
		nullCarrierID(trip.CarrierID),
		nullLinehaulID(trip.LinehaulProfileID),
		nullTerminalID(trip.OriginTerminal),
		nullTerminalID(trip.DestinationTerminal),
		trip.DispatchDate.String(),
		string(trip.TrailerConfig),
		nullDecimal(trip.Miles),
		nullDecimal(trip.WorkHours),
		nullDecimal(trip.StopHours),
		nullMoney(trip.LinkedRevenue),
	)
	if err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

// GetTrip returns a trip by id, or engine.ErrTripNotFound.
func (s *Store) GetTrip(ctx context.Context, id engine.TripID) (*engine.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectTripQuery+` WHERE id = ?`, string(id))
	trip, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %s: %w", id, engine.ErrTripNotFound)
	}
	return trip, err
}

// TripsDispatchedIn returns trips dispatched within the window, inclusive.
func (s *Store) TripsDispatchedIn(ctx context.Context, window engine.DateWindow) ([]*engine.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectTripQuery+`
		WHERE dispatch_date >= ? AND dispatch_date <= ? ORDER BY id`,
		window.Start.String(), window.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []*engine.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

const selectTripQuery = `
	SELECT id, driver_id, carrier_id, linehaul_profile_id, origin_terminal,
	       destination_terminal, dispatch_date, trailer_config, miles,
	       work_hours, stop_hours, linked_revenue
	FROM trips`

func scanTrip(row rowScanner) (*engine.Trip, error) {
	var (
		trip                                       engine.Trip
		dispatchDate, trailerConfig                string
		carrierID, linehaulID, originID, destID    sql.NullString
		miles, workHours, stopHours, linkedRevenue sql.NullString
	)
	err := row.Scan(&trip.ID, &trip.DriverID, &carrierID, &linehaulID,
		&originID, &destID, &dispatchDate, &trailerConfig,
		&miles, &workHours, &stopHours, &linkedRevenue)
	if err != nil {
		return nil, err
	}

	if carrierID.Valid {
		id := engine.CarrierID(carrierID.String)
		trip.CarrierID = &id
	}
	if linehaulID.Valid {
		id := engine.LinehaulProfileID(linehaulID.String)
		trip.LinehaulProfileID = &id
	}
	if originID.Valid {
		id := engine.TerminalID(originID.String)
		trip.OriginTerminal = &id
	}
	if destID.Valid {
		id := engine.TerminalID(destID.String)
		trip.DestinationTerminal = &id
	}

	d, err := parseDate(dispatchDate)
	if err != nil {
		return nil, fmt.Errorf("trip %s: bad dispatch date: %w", trip.ID, err)
	}
	trip.DispatchDate = d
	trip.TrailerConfig = engine.TrailerConfig(trailerConfig)

	if trip.Miles, err = parseNullDecimal(miles); err != nil {
		return nil, err
	}
	if trip.WorkHours, err = parseNullDecimal(workHours); err != nil {
		return nil, err
	}
	if trip.StopHours, err = parseNullDecimal(stopHours); err != nil {
		return nil, err
	}
	if linkedRevenue.Valid {
		m, err := parseMoney(linkedRevenue.String)
		if err != nil {
			return nil, err
		}
		trip.LinkedRevenue = &m
	}

	return &trip, nil
}

// SaveTripReport upserts the arrival report for a trip.
func (s *Store) SaveTripReport(ctx context.Context, report *engine.DriverTripReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trip_reports
		(trip_id, drop_and_hook_count, chain_up_cycles, wait_time_start,
		 wait_time_end, wait_time_reason, notes, verified, pay_approved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trip_id) DO UPDATE SET
		 drop_and_hook_count = excluded.drop_and_hook_count,
		 chain_up_cycles = excluded.chain_up_cycles,
		 wait_time_start = excluded.wait_time_start,
		 wait_time_end = excluded.wait_time_end,
		 wait_time_reason = excluded.wait_time_reason,
		 notes = excluded.notes,
		 verified = excluded.verified,
		 pay_approved = excluded.pay_approved`,
		string(report.TripID),
		report.DropAndHookCount,
		report.ChainUpCycles,
		nullTime(report.WaitTimeStart),
		nullTime(report.WaitTimeEnd),
		nullString(report.WaitTimeReason),
		nullString(report.Notes),
		report.Verified,
		report.PayApproved,
	)
	if err != nil {
		return fmt.Errorf("failed to save trip report: %w", err)
	}
	return nil
}

// GetTripReport returns the report for a trip, or nil if none exists.
func (s *Store) GetTripReport(ctx context.Context, id engine.TripID) (*engine.DriverTripReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		report             engine.DriverTripReport
		waitStart, waitEnd sql.NullString
		waitReason, notes  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT trip_id, drop_and_hook_count, chain_up_cycles, wait_time_start,
		       wait_time_end, wait_time_reason, notes, verified, pay_approved
		FROM trip_reports WHERE trip_id = ?`, string(id)).
		Scan(&report.TripID, &report.DropAndHookCount, &report.ChainUpCycles,
			&waitStart, &waitEnd, &waitReason, &notes,
			&report.Verified, &report.PayApproved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trip report: %w", err)
	}

	if report.WaitTimeStart, err = parseNullTime(waitStart); err != nil {
		return nil, err
	}
	if report.WaitTimeEnd, err = parseNullTime(waitEnd); err != nil {
		return nil, err
	}
	report.WaitTimeReason = waitReason.String
	report.Notes = notes.String

	return &report, nil
}

// =============================================================================
// TRIP PAY STORE (payroll.TripPayStore interface)
// =============================================================================

// CreateTripPay persists a new record. The unique index on
// (trip_id, pay_period_id) makes this atomic create-or-fail; a constraint
// violation maps to engine.ErrConcurrentModification.
func (s *Store) CreateTripPay(ctx context.Context, tp *payroll.TripPay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trip_pays
		(id, trip_id, pay_period_id, driver_id, rate_card_id, base_pay,
		 mileage_pay, accessorial_pay, bonus_pay, deductions, status,
		 calculated_at, reviewed_at, approved_at, paid_at, exported_at,
		 reviewed_by, approved_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tp.ID),
		string(tp.TripID),
		string(tp.PayPeriodID),
		string(tp.DriverID),
		nullString(string(tp.RateCardID)),
		tp.BasePay.Value.String(),
		tp.MileagePay.Value.String(),
		tp.AccessorialPay.Value.String(),
		tp.BonusPay.Value.String(),
		tp.Deductions.Value.String(),
		string(tp.Status),
		nullTime(tp.CalculatedAt),
		nullTime(tp.ReviewedAt),
		nullTime(tp.ApprovedAt),
		nullTime(tp.PaidAt),
		nullTime(tp.ExportedAt),
		nullString(tp.ReviewedBy),
		nullString(tp.ApprovedBy),
		tp.CreatedAt.Format(time.RFC3339),
		tp.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("trip pay for trip %s in period %s: %w",
				tp.TripID, tp.PayPeriodID, engine.ErrConcurrentModification)
		}
		return fmt.Errorf("failed to insert trip pay: %w", err)
	}
	return nil
}

// GetTripPay returns a record by id, or nil when absent.
func (s *Store) GetTripPay(ctx context.Context, id engine.TripPayID) (*payroll.TripPay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectTripPayQuery+` WHERE id = ?`, string(id))
	tp, err := scanTripPay(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return tp, err
}

// GetTripPayByTrip returns the record for a trip within a period, or nil.
func (s *Store) GetTripPayByTrip(ctx context.Context, tripID engine.TripID, periodID engine.PayPeriodID) (*payroll.TripPay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		selectTripPayQuery+` WHERE trip_id = ? AND pay_period_id = ?`,
		string(tripID), string(periodID))
	tp, err := scanTripPay(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return tp, err
}

// UpdateTripPay persists component or status changes.
func (s *Store) UpdateTripPay(ctx context.Context, tp *payroll.TripPay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE trip_pays SET
		 rate_card_id = ?, base_pay = ?, mileage_pay = ?, accessorial_pay = ?,
		 bonus_pay = ?, deductions = ?, status = ?, calculated_at = ?,
		 reviewed_at = ?, approved_at = ?, paid_at = ?, exported_at = ?,
		 reviewed_by = ?, approved_by = ?, updated_at = ?
		WHERE id = ?`,
		nullString(string(tp.RateCardID)),
		tp.BasePay.Value.String(),
		tp.MileagePay.Value.String(),
		tp.AccessorialPay.Value.String(),
		tp.BonusPay.Value.String(),
		tp.Deductions.Value.String(),
		string(tp.Status),
		nullTime(tp.CalculatedAt),
		nullTime(tp.ReviewedAt),
		nullTime(tp.ApprovedAt),
		nullTime(tp.PaidAt),
		nullTime(tp.ExportedAt),
		nullString(tp.ReviewedBy),
		nullString(tp.ApprovedBy),
		time.Now().UTC().Format(time.RFC3339),
		string(tp.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update trip pay: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("trip pay %s: %w", tp.ID, engine.ErrTripNotFound)
	}
	return nil
}

// ListTripPays returns every record in a period.
func (s *Store) ListTripPays(ctx context.Context, periodID engine.PayPeriodID) ([]*payroll.TripPay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectTripPayQuery+` WHERE pay_period_id = ? ORDER BY id`, string(periodID))
	if err != nil {
		return nil, fmt.Errorf("failed to query trip pays: %w", err)
	}
	defer rows.Close()

	var pays []*payroll.TripPay
	for rows.Next() {
		tp, err := scanTripPay(rows)
		if err != nil {
			return nil, err
		}
		pays = append(pays, tp)
	}
	return pays, rows.Err()
}

const selectTripPayQuery = `
	SELECT id, trip_id, pay_period_id, driver_id, rate_card_id, base_pay,
	       mileage_pay, accessorial_pay, bonus_pay, deductions, status,
	       calculated_at, reviewed_at, approved_at, paid_at, exported_at,
	       reviewed_by, approved_by, created_at, updated_at
	FROM trip_pays`

func scanTripPay(row rowScanner) (*payroll.TripPay, error) {
	var (
		tp                                            payroll.TripPay
		rateCardID, reviewedBy, approvedBy            sql.NullString
		basePay, mileagePay, accessorialPay, bonusPay string
		deductions, status, createdAt, updatedAt      string
		calculatedAt, reviewedAt, approvedAt          sql.NullString
		paidAt, exportedAt                            sql.NullString
	)
	err := row.Scan(&tp.ID, &tp.TripID, &tp.PayPeriodID, &tp.DriverID,
		&rateCardID, &basePay, &mileagePay, &accessorialPay, &bonusPay,
		&deductions, &status, &calculatedAt, &reviewedAt, &approvedAt,
		&paidAt, &exportedAt, &reviewedBy, &approvedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	tp.RateCardID = engine.RateCardID(rateCardID.String)
	tp.Status = payroll.TripPayStatus(status)
	tp.ReviewedBy = reviewedBy.String
	tp.ApprovedBy = approvedBy.String

	if tp.BasePay, err = parseMoney(basePay); err != nil {
		return nil, err
	}
	if tp.MileagePay, err = parseMoney(mileagePay); err != nil {
		return nil, err
	}
	if tp.AccessorialPay, err = parseMoney(accessorialPay); err != nil {
		return nil, err
	}
	if tp.BonusPay, err = parseMoney(bonusPay); err != nil {
		return nil, err
	}
	if tp.Deductions, err = parseMoney(deductions); err != nil {
		return nil, err
	}

	if tp.CalculatedAt, err = parseNullTime(calculatedAt); err != nil {
		return nil, err
	}
	if tp.ReviewedAt, err = parseNullTime(reviewedAt); err != nil {
		return nil, err
	}
	if tp.ApprovedAt, err = parseNullTime(approvedAt); err != nil {
		return nil, err
	}
	if tp.PaidAt, err = parseNullTime(paidAt); err != nil {
		return nil, err
	}
	if tp.ExportedAt, err = parseNullTime(exportedAt); err != nil {
		return nil, err
	}
	if tp.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if tp.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &tp, nil
}

// =============================================================================
// PAY PERIOD STORE (payroll.PayPeriodStore interface)
// =============================================================================

// CreatePayPeriod persists a new period. The overlap check and the insert
// run in one sql transaction under the write lock; the partial unique index
// on status='OPEN' backs up the single-open invariant.
func (s *Store) CreatePayPeriod(ctx context.Context, p *payroll.PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var overlapping int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pay_periods
		WHERE start_date <= ? AND end_date >= ?`,
		p.Window.End.String(), p.Window.Start.String()).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check period overlap: %w", err)
	}
	if overlapping > 0 {
		return fmt.Errorf("pay period window %s overlaps an existing period: %w",
			p.Window, engine.ErrConcurrentModification)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pay_periods
		(id, start_date, end_date, status, export_batch_id, closed_at,
		 locked_at, exported_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID),
		p.Window.Start.String(),
		p.Window.End.String(),
		string(p.Status),
		nullString(p.ExportBatchID),
		nullTime(p.ClosedAt),
		nullTime(p.LockedAt),
		nullTime(p.ExportedAt),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("another pay period is already open: %w",
				engine.ErrConcurrentModification)
		}
		return fmt.Errorf("failed to insert pay period: %w", err)
	}

	return tx.Commit()
}

// GetPayPeriod returns a period by id, or engine.ErrPayPeriodNotFound.
func (s *Store) GetPayPeriod(ctx context.Context, id engine.PayPeriodID) (*payroll.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectPeriodQuery+` WHERE id = ?`, string(id))
	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pay period %s: %w", id, engine.ErrPayPeriodNotFound)
	}
	return p, err
}

// FindOpenPeriod returns the single OPEN period, or engine.ErrNoOpenPayPeriod.
func (s *Store) FindOpenPeriod(ctx context.Context) (*payroll.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectPeriodQuery+` WHERE status = 'OPEN'`)
	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNoOpenPayPeriod
	}
	return p, err
}

// UpdatePayPeriod persists a status change.
func (s *Store) UpdatePayPeriod(ctx context.Context, p *payroll.PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE pay_periods SET
		 status = ?, export_batch_id = ?, closed_at = ?, locked_at = ?,
		 exported_at = ?
		WHERE id = ?`,
		string(p.Status),
		nullString(p.ExportBatchID),
		nullTime(p.ClosedAt),
		nullTime(p.LockedAt),
		nullTime(p.ExportedAt),
		string(p.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update pay period: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("pay period %s: %w", p.ID, engine.ErrPayPeriodNotFound)
	}
	return nil
}

// ListPayPeriods returns all periods, newest first.
func (s *Store) ListPayPeriods(ctx context.Context) ([]*payroll.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectPeriodQuery+` ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay periods: %w", err)
	}
	defer rows.Close()

	var periods []*payroll.PayPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

const selectPeriodQuery = `
	SELECT id, start_date, end_date, status, export_batch_id, closed_at,
	       locked_at, exported_at, created_at
	FROM pay_periods`

func scanPeriod(row rowScanner) (*payroll.PayPeriod, error) {
	var (
		p                              payroll.PayPeriod
		startDate, endDate, status     string
		createdAt                      string
		exportBatchID                  sql.NullString
		closedAt, lockedAt, exportedAt sql.NullString
	)
	err := row.Scan(&p.ID, &startDate, &endDate, &status, &exportBatchID,
		&closedAt, &lockedAt, &exportedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	if p.Window.Start, err = parseDate(startDate); err != nil {
		return nil, err
	}
	if p.Window.End, err = parseDate(endDate); err != nil {
		return nil, err
	}
	p.Status = payroll.PayPeriodStatus(status)
	p.ExportBatchID = exportBatchID.String

	if p.ClosedAt, err = parseNullTime(closedAt); err != nil {
		return nil, err
	}
	if p.LockedAt, err = parseNullTime(lockedAt); err != nil {
		return nil, err
	}
	if p.ExportedAt, err = parseNullTime(exportedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &p, nil
}

// =============================================================================
// CUT PAY STORE (payroll.CutPayStore interface)
// =============================================================================

func (s *Store) CreateCutPay(ctx context.Context, cp *payroll.CutPay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cut_pays
		(id, driver_id, pay_period_id, rate_card_id, hours_requested,
		 miles_requested, trailer_config, reason_code, notes, base_pay,
		 status, calculated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(cp.ID),
		string(cp.DriverID),
		string(cp.PayPeriodID),
		nullString(string(cp.RateCardID)),
		nullString(cp.HoursRequested),
		nullString(cp.MilesRequested),
		string(cp.TrailerConfig),
		cp.ReasonCode,
		nullString(cp.Notes),
		cp.BasePay.Value.String(),
		string(cp.Status),
		nullTime(cp.CalculatedAt),
		cp.CreatedAt.Format(time.RFC3339),
		cp.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("cut pay %s: %w", cp.ID, engine.ErrConcurrentModification)
		}
		return fmt.Errorf("failed to insert cut pay: %w", err)
	}
	return nil
}

func (s *Store) GetCutPay(ctx context.Context, id engine.CutPayRequestID) (*payroll.CutPay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectCutPayQuery+` WHERE id = ?`, string(id))
	cp, err := scanCutPay(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cp, err
}

func (s *Store) UpdateCutPay(ctx context.Context, cp *payroll.CutPay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE cut_pays SET
		 base_pay = ?, status = ?, calculated_at = ?, updated_at = ?
		WHERE id = ?`,
		cp.BasePay.Value.String(),
		string(cp.Status),
		nullTime(cp.CalculatedAt),
		time.Now().UTC().Format(time.RFC3339),
		string(cp.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update cut pay: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("cut pay %s: %w", cp.ID, engine.ErrInvalidCutPayRequest)
	}
	return nil
}

func (s *Store) ListCutPays(ctx context.Context, periodID engine.PayPeriodID) ([]*payroll.CutPay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectCutPayQuery+` WHERE pay_period_id = ? ORDER BY id`, string(periodID))
	if err != nil {
		return nil, fmt.Errorf("failed to query cut pays: %w", err)
	}
	defer rows.Close()

	var pays []*payroll.CutPay
	for rows.Next() {
		cp, err := scanCutPay(rows)
		if err != nil {
			return nil, err
		}
		pays = append(pays, cp)
	}
	return pays, rows.Err()
}

const selectCutPayQuery = `
	SELECT id, driver_id, pay_period_id, rate_card_id, hours_requested,
	       miles_requested, trailer_config, reason_code, notes, base_pay,
	       status, calculated_at, created_at, updated_at
	FROM cut_pays`

func scanCutPay(row rowScanner) (*payroll.CutPay, error) {
	var (
		cp                              payroll.CutPay
		rateCardID, hours, miles, notes sql.NullString
		trailerConfig, status, basePay  string
		calculatedAt                    sql.NullString
		createdAt, updatedAt            string
	)
	err := row.Scan(&cp.ID, &cp.DriverID, &cp.PayPeriodID, &rateCardID,
		&hours, &miles, &trailerConfig, &cp.ReasonCode, &notes, &basePay,
		&status, &calculatedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	cp.RateCardID = engine.RateCardID(rateCardID.String)
	cp.HoursRequested = hours.String
	cp.MilesRequested = miles.String
	cp.TrailerConfig = engine.TrailerConfig(trailerConfig)
	cp.Notes = notes.String
	cp.Status = payroll.TripPayStatus(status)

	if cp.BasePay, err = parseMoney(basePay); err != nil {
		return nil, err
	}
	if cp.CalculatedAt, err = parseNullTime(calculatedAt); err != nil {
		return nil, err
	}
	if cp.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if cp.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &cp, nil
}

// =============================================================================
// AUDIT LOG (payroll.AuditLog interface)
// =============================================================================

// Append records one transition. Append-only: this package contains no
// UPDATE or DELETE against pay_audit_log.
func (s *Store) Append(ctx context.Context, entry payroll.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pay_audit_log
		(id, at, actor_id, action, trip_pay_id, period_id, from_status,
		 to_status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.At.Format(time.RFC3339),
		nullString(entry.ActorID),
		string(entry.Action),
		nullString(string(entry.TripPayID)),
		nullString(string(entry.PeriodID)),
		nullString(entry.FromStatus),
		nullString(entry.ToStatus),
		nullString(entry.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) ByTripPay(ctx context.Context, id engine.TripPayID) ([]payroll.AuditEntry, error) {
	return s.queryAudit(ctx, `WHERE trip_pay_id = ?`, string(id))
}

func (s *Store) ByPeriod(ctx context.Context, id engine.PayPeriodID) ([]payroll.AuditEntry, error) {
	return s.queryAudit(ctx, `WHERE period_id = ?`, string(id))
}

func (s *Store) queryAudit(ctx context.Context, where string, arg any) ([]payroll.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, actor_id, action, trip_pay_id, period_id, from_status,
		       to_status, notes
		FROM pay_audit_log `+where+` ORDER BY at, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []payroll.AuditEntry
	for rows.Next() {
		var (
			e                            payroll.AuditEntry
			at, action                   string
			actorID, tripPayID, periodID sql.NullString
			fromStatus, toStatus, notes  sql.NullString
		)
		if err := rows.Scan(&e.ID, &at, &actorID, &action, &tripPayID,
			&periodID, &fromStatus, &toStatus, &notes); err != nil {
			return nil, err
		}
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		e.ActorID = actorID.String
		e.Action = payroll.AuditAction(action)
		e.TripPayID = engine.TripPayID(tripPayID.String)
		e.PeriodID = engine.PayPeriodID(periodID.String)
		e.FromStatus = fromStatus.String
		e.ToStatus = toStatus.String
		e.Notes = notes.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// ENCODING HELPERS
// =============================================================================

func moneyStr(m engine.Money) *string {
	s := m.Value.String()
	return &s
}

func optMoneyStr(m *engine.Money) *string {
	if m == nil {
		return nil
	}
	return moneyStr(*m)
}

func strMoney(s *string) (engine.Money, error) {
	if s == nil {
		return engine.ZeroMoney(), nil
	}
	return parseMoney(*s)
}

func strOptMoney(s *string) (*engine.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := parseMoney(*s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func parseMoney(s string) (engine.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return engine.ZeroMoney(), fmt.Errorf("bad amount %q: %w", s, err)
	}
	return engine.Money{Value: d}, nil
}

func parseNullMoney(ns sql.NullString) (*engine.Money, error) {
	if !ns.Valid {
		return nil, nil
	}
	m, err := parseMoney(ns.String)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func parseNullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("bad decimal %q: %w", ns.String, err)
	}
	return &d, nil
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullMoney(m *engine.Money) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: m.Value.String(), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullDate(d *engine.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDriverID(id *engine.DriverID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullCarrierID(id *engine.CarrierID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullLinehaulID(id *engine.LinehaulProfileID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullTerminalID(id *engine.TerminalID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func parseDate(s string) (engine.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return engine.Date{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return engine.DateOf(t), nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
