package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

func TestRacersUpsert(t *testing.T) {
	t.Parallel()

	db, mock := newTestDB(t)
	birth := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO "racers"`).
		WithArgs(&birth, 1, 14, "racer", "f", 170, "boat", 4444, "active", 100).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := db.Racers().Upsert(context.Background(), boatrace.Racer{
		RegistrationNumber: 4444,
		LastName:           "boat",
		FirstName:          "racer",
		Gender:             "f",
		Term:               100,
		BirthDate:          &birth,
		BranchID:           14,
		BirthPrefectureID:  1,
		Height:             170,
		Status:             boatrace.RacerStatusActive,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRacersMarkRetired(t *testing.T) {
	t.Parallel()

	db, mock := newTestDB(t)

	mock.ExpectExec(`INSERT INTO "racers"`).
		WithArgs(4444, "retired").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, db.Racers().MarkRetired(context.Background(), 4444))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRacersFindIncomplete(t *testing.T) {
	t.Parallel()

	db, mock := newTestDB(t)

	rows := pgxmock.NewRows([]string{"racer_registration_number"}).
		AddRow(4001).
		AddRow(4002)

	mock.ExpectQuery(`SELECT DISTINCT`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(rows)

	numbers, err := db.Racers().FindIncomplete(context.Background(), 50)
	require.NoError(t, err)
	require.Equal(t, []int{4001, 4002}, numbers)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRacersFindIncompleteRejectsBadLimit(t *testing.T) {
	t.Parallel()

	db, _ := newTestDB(t)

	_, err := db.Racers().FindIncomplete(context.Background(), 0)
	require.Error(t, err)
}
