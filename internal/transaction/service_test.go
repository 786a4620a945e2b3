package transaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

func row(y, m, d int, amount, desc string) *transaction.CsvTransaction {
	return transaction.NewCsvTransaction(transaction.CsvParams{
		Account:     eur,
		Date:        date(y, m, d),
		Amount:      dec(amount),
		Description: desc,
	})
}

func TestService_List(t *testing.T) {
	type testCase struct {
		name      string
		setupMock func(m *transaction.MockRepository)
		wantLen   int
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any(), transaction.ListFilter{}).
					Return([]*transaction.CsvTransaction{
						row(2024, 1, 15, "-10.00", "COFFEE"),
						row(2024, 1, 16, "-20.00", "LUNCH"),
					}, nil)
			},
			wantLen: 2,
		},
		{
			name: "Error",
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any(), transaction.ListFilter{}).
					Return(nil, errors.New("list error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo)
			got, err := svc.List(context.Background(), transaction.ListFilter{})

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestService_Ledger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	repo.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).Return([]*transaction.CsvTransaction{
		row(2023, 12, 30, "-1.00", "A"),
		row(2024, 1, 2, "-2.00", "B"),
		row(2024, 1, 3, "-3.00", "C"),
	}, nil)

	l, err := svc.Ledger(context.Background(), transaction.ListFilter{Account: &eur})
	require.NoError(t, err)
	assert.Len(t, l[eur][2023], 1)
	assert.Len(t, l[eur][2024], 2)
}

func TestService_ImportBatch_NoDuplicates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo)

	rows := []*transaction.CsvTransaction{
		row(2024, 1, 15, "-10.00", "COFFEE SHOP"),
		row(2024, 1, 20, "-25.00", "LUNCH PLACE"),
	}

	repo.EXPECT().BeginImport(gomock.Any(), eur, date(2024, 1, 15), date(2024, 1, 20)).Return(itx, nil)
	itx.EXPECT().FindExisting(gomock.Any(), eur, []transaction.ID{rows[0].ID(), rows[1].ID()}).Return(nil, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), rows).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), eur, rows)
	require.NoError(t, err)
	assert.Len(t, result.Imported, 2)
	assert.Empty(t, result.Duplicates)
}

func TestService_ImportBatch_WithDuplicates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo)

	stored := row(2024, 1, 15, "-10.00", "COFFEE SHOP")
	rows := []*transaction.CsvTransaction{
		row(2024, 1, 15, "-10.00", "COFFEE SHOP"),
		row(2024, 1, 15, "-20.00", "LUNCH PLACE"),
		row(2024, 1, 15, "-20.00", "LUNCH PLACE"),
	}

	repo.EXPECT().BeginImport(gomock.Any(), eur, date(2024, 1, 15), date(2024, 1, 15)).Return(itx, nil)
	itx.EXPECT().FindExisting(gomock.Any(), eur, gomock.Any()).Return([]*transaction.CsvTransaction{stored}, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), []*transaction.CsvTransaction{rows[1]}).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), eur, rows)
	require.NoError(t, err)
	assert.Equal(t, []*transaction.CsvTransaction{rows[1]}, result.Imported)
	assert.Equal(t, []*transaction.CsvTransaction{rows[0], rows[2]}, result.Duplicates)
}

func TestService_ImportBatch_AllDuplicates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo)

	rows := []*transaction.CsvTransaction{row(2024, 1, 15, "-10.00", "COFFEE SHOP")}

	repo.EXPECT().BeginImport(gomock.Any(), eur, gomock.Any(), gomock.Any()).Return(itx, nil)
	itx.EXPECT().FindExisting(gomock.Any(), eur, gomock.Any()).Return(rows, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), eur, rows)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Len(t, result.Duplicates, 1)
}

func TestService_ImportBatch_WrongAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := transaction.NewService(transaction.NewMockRepository(ctrl))

	other := eur
	other.Holder = "SOMEONE ELSE"

	_, err := svc.ImportBatch(context.Background(), other, []*transaction.CsvTransaction{row(2024, 1, 15, "-1", "X")})
	assert.Error(t, err)
}

func TestService_ImportBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := transaction.NewService(transaction.NewMockRepository(ctrl))

	result, err := svc.ImportBatch(context.Background(), eur, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Empty(t, result.Duplicates)
}

func TestService_ImportBatch_BeginError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	repo.EXPECT().BeginImport(gomock.Any(), eur, gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := svc.ImportBatch(context.Background(), eur, []*transaction.CsvTransaction{row(2024, 1, 15, "-1", "X")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin import")
}
