package domain

import "time"

// Money columns are integer cents; rate columns are decimal percentages (6.5 means 6.5%).

type Portfolio struct {
	ID        string
	UserID    int64
	Name      string
	Region    string
	CreatedAt time.Time

	// Owner's tax position. MarginalRate 0 derives the rate from OtherIncome.
	MarginalRate float64
	OtherIncome  int64
}

type Property struct {
	ID            string
	PortfolioID   string
	Name          string
	Address       *string
	PurchasePrice int64
	PurchaseDate  time.Time
	CurrentValue  int64
	GrowthRate    float64
	ExpenseGrowth float64
	OwnerOccupied bool
	Depreciation  int64 // annual

	Loan            *Loan
	Rental          *Rental
	Expenses        []Expense
	GrowthForecasts []Forecast
}

type Loan struct {
	ID                 string
	PropertyID         string
	Lender             *string
	Principal          int64
	InterestRate       float64
	TermYears          int
	Structure          string
	Frequency          string
	InterestOnlyYears  int
	StartDate          time.Time
	OffsetBalance      int64
	OffsetContribution int64

	ExtraPayments []ExtraPayment
	LumpSums      []LumpSum
	RateForecasts []Forecast
}

type Rental struct {
	PropertyID  string
	WeeklyRent  int64
	VacancyRate float64
	RentGrowth  float64
}

type Expense struct {
	PropertyID string
	Category   string
	Amount     int64
	Frequency  string
}

// Forecast is a rate override from Year onward.
type Forecast struct {
	Year int
	Rate float64
}

type ExtraPayment struct {
	LoanID    string
	Amount    int64
	Frequency string
	StartDate time.Time
	EndDate   *time.Time
}

type LumpSum struct {
	LoanID string
	Amount int64
	Date   time.Time
}
