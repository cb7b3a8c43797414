package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"propvest/internal/domain"
)

var ErrNotFound = errors.New("not found")

type PortfoliosFilter struct {
	UserID int64
	Region *string
	Search *string
}

type PortfolioRepository struct {
	db *sql.DB
}

func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) List(ctx context.Context, f PortfoliosFilter) ([]domain.Portfolio, error) {
	where := []string{"p.deleted_at IS NULL", "p.user_id = $1"}
	args := []any{f.UserID}
	i := 2

	if f.Region != nil {
		where = append(where, fmt.Sprintf("p.region = $%d", i))
		args = append(args, *f.Region)
		i++
	}
	if f.Search != nil {
		where = append(where, fmt.Sprintf("p.name ILIKE $%d", i))
		args = append(args, "%"+*f.Search+"%")
		i++
	}

	query := `
		SELECT p.id, p.user_id, p.name, p.region, p.marginal_rate, p.other_income, p.created_at
		FROM portfolios p
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var result []domain.Portfolio
	for rows.Next() {
		var p domain.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Region, &p.MarginalRate, &p.OtherIncome, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PortfolioRepository) Get(ctx context.Context, userID int64, portfolioID string) (*domain.Portfolio, error) {
	query := `
		SELECT id, user_id, name, region, marginal_rate, other_income, created_at
		FROM portfolios
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	var p domain.Portfolio
	err := r.db.QueryRowContext(ctx, query, portfolioID, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.Region, &p.MarginalRate, &p.OtherIncome, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get portfolio %s: %w", portfolioID, err)
	}
	return &p, nil
}

// Properties loads every property of a portfolio with its loan, rental, expenses and
// forecasts attached.
func (r *PortfolioRepository) Properties(ctx context.Context, portfolioID string) ([]domain.Property, error) {
	props, err := r.properties(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return props, nil
	}

	byID := make(map[string]*domain.Property, len(props))
	for i := range props {
		byID[props[i].ID] = &props[i]
	}

	loans, err := r.loans(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	loansByID := make(map[string]*domain.Loan, len(loans))
	for i := range loans {
		l := &loans[i]
		if p, ok := byID[l.PropertyID]; ok && p.Loan == nil {
			p.Loan = l
			loansByID[l.ID] = l
		}
	}

	if err := r.attachRentals(ctx, portfolioID, byID); err != nil {
		return nil, err
	}
	if err := r.attachExpenses(ctx, portfolioID, byID); err != nil {
		return nil, err
	}
	if err := r.attachGrowthForecasts(ctx, portfolioID, byID); err != nil {
		return nil, err
	}
	if err := r.attachRateForecasts(ctx, portfolioID, loansByID); err != nil {
		return nil, err
	}
	if err := r.attachExtraPayments(ctx, portfolioID, loansByID); err != nil {
		return nil, err
	}
	if err := r.attachLumpSums(ctx, portfolioID, loansByID); err != nil {
		return nil, err
	}
	return props, nil
}

func (r *PortfolioRepository) properties(ctx context.Context, portfolioID string) ([]domain.Property, error) {
	query := `
		SELECT
			p.id,
			p.portfolio_id,
			p.name,
			p.address,
			p.purchase_price,
			p.purchase_date,
			p.current_value,
			p.growth_rate,
			p.expense_growth,
			p.owner_occupied,
			p.depreciation
		FROM properties p
		WHERE p.portfolio_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.purchase_date, p.id`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var result []domain.Property
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(
			&p.ID,
			&p.PortfolioID,
			&p.Name,
			&p.Address,
			&p.PurchasePrice,
			&p.PurchaseDate,
			&p.CurrentValue,
			&p.GrowthRate,
			&p.ExpenseGrowth,
			&p.OwnerOccupied,
			&p.Depreciation,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PortfolioRepository) loans(ctx context.Context, portfolioID string) ([]domain.Loan, error) {
	query := `
		SELECT
			l.id,
			l.property_id,
			l.lender,
			l.principal,
			l.interest_rate,
			l.term_years,
			l.structure,
			l.frequency,
			l.interest_only_years,
			l.start_date,
			l.offset_balance,
			l.offset_contribution
		FROM loans l
		JOIN properties p ON p.id = l.property_id
		WHERE p.portfolio_id = $1 AND l.deleted_at IS NULL
		ORDER BY l.start_date, l.id`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var result []domain.Loan
	for rows.Next() {
		var l domain.Loan
		if err := rows.Scan(
			&l.ID,
			&l.PropertyID,
			&l.Lender,
			&l.Principal,
			&l.InterestRate,
			&l.TermYears,
			&l.Structure,
			&l.Frequency,
			&l.InterestOnlyYears,
			&l.StartDate,
			&l.OffsetBalance,
			&l.OffsetContribution,
		); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (r *PortfolioRepository) attachRentals(ctx context.Context, portfolioID string, byID map[string]*domain.Property) error {
	query := `
		SELECT r.property_id, r.weekly_rent, r.vacancy_rate, r.rent_growth
		FROM rentals r
		JOIN properties p ON p.id = r.property_id
		WHERE p.portfolio_id = $1`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rent domain.Rental
		if err := rows.Scan(&rent.PropertyID, &rent.WeeklyRent, &rent.VacancyRate, &rent.RentGrowth); err != nil {
			return err
		}
		if p, ok := byID[rent.PropertyID]; ok {
			p.Rental = &rent
		}
	}
	return rows.Err()
}

func (r *PortfolioRepository) attachExpenses(ctx context.Context, portfolioID string, byID map[string]*domain.Property) error {
	query := `
		SELECT e.property_id, e.category, e.amount, e.frequency
		FROM expenses e
		JOIN properties p ON p.id = e.property_id
		WHERE p.portfolio_id = $1
		ORDER BY e.category`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.PropertyID, &e.Category, &e.Amount, &e.Frequency); err != nil {
			return err
		}
		if p, ok := byID[e.PropertyID]; ok {
			p.Expenses = append(p.Expenses, e)
		}
	}
	return rows.Err()
}

func (r *PortfolioRepository) attachGrowthForecasts(ctx context.Context, portfolioID string, byID map[string]*domain.Property) error {
	query := `
		SELECT g.property_id, g.year, g.rate
		FROM growth_forecasts g
		JOIN properties p ON p.id = g.property_id
		WHERE p.portfolio_id = $1
		ORDER BY g.id`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return fmt.Errorf("list growth forecasts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			propertyID string
			f          domain.Forecast
		)
		if err := rows.Scan(&propertyID, &f.Year, &f.Rate); err != nil {
			return err
		}
		if p, ok := byID[propertyID]; ok {
			p.GrowthForecasts = append(p.GrowthForecasts, f)
		}
	}
	return rows.Err()
}

// attachRateForecasts keeps insertion order (ORDER BY id) so the latest entry for a
// duplicated year stays last.
func (r *PortfolioRepository) attachRateForecasts(ctx context.Context, portfolioID string, loans map[string]*domain.Loan) error {
	query := `
		SELECT f.loan_id, f.year, f.rate
		FROM rate_forecasts f
		JOIN loans l ON l.id = f.loan_id
		JOIN properties p ON p.id = l.property_id
		WHERE p.portfolio_id = $1
		ORDER BY f.id`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return fmt.Errorf("list rate forecasts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			loanID string
			f      domain.Forecast
		)
		if err := rows.Scan(&loanID, &f.Year, &f.Rate); err != nil {
			return err
		}
		if l, ok := loans[loanID]; ok {
			l.RateForecasts = append(l.RateForecasts, f)
		}
	}
	return rows.Err()
}

func (r *PortfolioRepository) attachExtraPayments(ctx context.Context, portfolioID string, loans map[string]*domain.Loan) error {
	query := `
		SELECT x.loan_id, x.amount, x.frequency, x.start_date, x.end_date
		FROM extra_payments x
		JOIN loans l ON l.id = x.loan_id
		JOIN properties p ON p.id = l.property_id
		WHERE p.portfolio_id = $1
		ORDER BY x.start_date`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return fmt.Errorf("list extra payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var x domain.ExtraPayment
		if err := rows.Scan(&x.LoanID, &x.Amount, &x.Frequency, &x.StartDate, &x.EndDate); err != nil {
			return err
		}
		if l, ok := loans[x.LoanID]; ok {
			l.ExtraPayments = append(l.ExtraPayments, x)
		}
	}
	return rows.Err()
}

func (r *PortfolioRepository) attachLumpSums(ctx context.Context, portfolioID string, loans map[string]*domain.Loan) error {
	query := `
		SELECT s.loan_id, s.amount, s.date
		FROM lump_sums s
		JOIN loans l ON l.id = s.loan_id
		JOIN properties p ON p.id = l.property_id
		WHERE p.portfolio_id = $1
		ORDER BY s.date`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return fmt.Errorf("list lump sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.LumpSum
		if err := rows.Scan(&s.LoanID, &s.Amount, &s.Date); err != nil {
			return err
		}
		if l, ok := loans[s.LoanID]; ok {
			l.LumpSums = append(l.LumpSums, s)
		}
	}
	return rows.Err()
}
