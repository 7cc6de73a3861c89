package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"
)

const (
	colCustomerID     = "Customer ID"
	colFirstName      = "First Name"
	colLastName       = "Last Name"
	colAge            = "Age"
	colPhoneNumber    = "Phone Number"
	colMonthlySalary  = "Monthly Salary"
	colApprovedLimit  = "Approved Limit"
	colLoanID         = "Loan ID"
	colLoanAmount     = "Loan Amount"
	colTenure         = "Tenure"
	colInterestRate   = "Interest Rate"
	colMonthlyPayment = "Monthly payment"
	colEMIsPaidOnTime = "EMIs paid on Time"
	colApprovalDate   = "Date of Approval"
	colEndDate        = "End Date"
)

var (
	customerColumns = []string{colCustomerID, colFirstName, colLastName, colAge, colPhoneNumber, colMonthlySalary, colApprovedLimit}
	loanColumns     = []string{colCustomerID, colLoanID, colLoanAmount, colTenure, colInterestRate, colMonthlyPayment, colEMIsPaidOnTime, colApprovalDate, colEndDate}
	dateLayouts     = []string{"2006-01-02", "2006-01-02 15:04:05", "1/2/2006", "01-02-06", "2/1/2006"}
)

// RowError is a row that could not be parsed and is skipped.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

type Source interface {
	ReadCustomers(path string) ([]*customer.Customer, []RowError, error)
	ReadLoans(path string) ([]*loan.Loan, []RowError, error)
}

// ExcelSource reads the first worksheet of an .xlsx workbook whose first row holds the column headers.
type ExcelSource struct{}

var _ Source = ExcelSource{}

func (ExcelSource) ReadCustomers(path string) ([]*customer.Customer, []RowError, error) {
	rows, err := readSheet(path, customerColumns)
	if err != nil {
		return nil, nil, err
	}

	var customers []*customer.Customer
	var rowErrs []RowError
	for _, r := range rows {
		c, err := r.customer()
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: r.number, Err: err})
			continue
		}
		customers = append(customers, c)
	}
	return customers, rowErrs, nil
}

func (ExcelSource) ReadLoans(path string) ([]*loan.Loan, []RowError, error) {
	rows, err := readSheet(path, loanColumns)
	if err != nil {
		return nil, nil, err
	}

	var loans []*loan.Loan
	var rowErrs []RowError
	for _, r := range rows {
		l, err := r.loan()
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: r.number, Err: err})
			continue
		}
		loans = append(loans, l)
	}
	return loans, rowErrs, nil
}

type row struct {
	number int
	cells  map[string]string
}

func readSheet(path string, required []string) ([]row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open %s: %w", apperrors.ErrIngestion, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no worksheets", apperrors.ErrIngestion, path)
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: could not read %s: %w", apperrors.ErrIngestion, path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", apperrors.ErrIngestion, path)
	}

	index := make(map[string]int, len(raw[0]))
	for i, h := range raw[0] {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s is missing column %q", apperrors.ErrIngestion, path, col)
		}
	}

	rows := make([]row, 0, len(raw)-1)
	for i, cells := range raw[1:] {
		if isBlank(cells) {
			continue
		}
		r := row{number: i + 2, cells: make(map[string]string, len(required))}
		for _, col := range required {
			if idx := index[col]; idx < len(cells) {
				r.cells[col] = strings.TrimSpace(cells[idx])
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (r row) customer() (*customer.Customer, error) {
	id, err := r.int64(colCustomerID)
	if err != nil {
		return nil, err
	}
	salary, err := r.int64(colMonthlySalary)
	if err != nil {
		return nil, err
	}
	age, err := r.optionalInt(colAge)
	if err != nil {
		return nil, err
	}

	limit := customer.ApprovedLimitFor(salary)
	if r.cells[colApprovedLimit] != "" {
		if limit, err = r.int64(colApprovedLimit); err != nil {
			return nil, err
		}
	}

	return &customer.Customer{
		CustomerID:    id,
		FirstName:     r.cells[colFirstName],
		LastName:      r.cells[colLastName],
		Age:           age,
		PhoneNumber:   r.phone(),
		MonthlySalary: salary,
		ApprovedLimit: limit,
	}, nil
}

func (r row) loan() (*loan.Loan, error) {
	l := &loan.Loan{}
	var err error
	if l.CustomerID, err = r.int64(colCustomerID); err != nil {
		return nil, err
	}
	if l.LoanID, err = r.int64(colLoanID); err != nil {
		return nil, err
	}
	if l.LoanAmount, err = r.float(colLoanAmount); err != nil {
		return nil, err
	}
	tenure, err := r.int64(colTenure)
	if err != nil {
		return nil, err
	}
	l.Tenure = int(tenure)
	if l.InterestRate, err = r.float(colInterestRate); err != nil {
		return nil, err
	}
	if l.MonthlyPayment, err = r.float(colMonthlyPayment); err != nil {
		return nil, err
	}
	paid, err := r.int64(colEMIsPaidOnTime)
	if err != nil {
		return nil, err
	}
	l.EMIsPaidOnTime = int(paid)
	if l.StartDate, err = r.date(colApprovalDate); err != nil {
		return nil, err
	}
	if l.EndDate, err = r.date(colEndDate); err != nil {
		return nil, err
	}
	return l, nil
}

func (r row) float(col string) (float64, error) {
	v := r.cells[col]
	if v == "" {
		return 0, apperrors.NewDataQualityError("%s is empty", col)
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return 0, apperrors.NewDataQualityError("%s %q is not a number", col, v)
	}
	return f, nil
}

// int64 accepts whole numbers written as floats, which is how spreadsheet cells store them.
func (r row) int64(col string) (int64, error) {
	f, err := r.float(col)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, apperrors.NewDataQualityError("%s %q is not a whole number", col, r.cells[col])
	}
	return int64(f), nil
}

func (r row) optionalInt(col string) (int, error) {
	if r.cells[col] == "" {
		return 0, nil
	}
	v, err := r.int64(col)
	return int(v), err
}

func (r row) phone() string {
	v := r.cells[colPhoneNumber]
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return v
}

func (r row) date(col string) (civil.Date, error) {
	v := r.cells[col]
	if v == "" {
		return civil.Date{}, apperrors.NewDataQualityError("%s is empty", col)
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return civil.Date{}, apperrors.NewDataQualityError("%s %q is not a date", col, v)
		}
		return civil.DateOf(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, apperrors.NewDataQualityError("%s %q is not a date", col, v)
}
