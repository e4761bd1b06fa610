package beamana

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

// RunConditions are the beam settings recorded for a run.
type RunConditions struct {
	Momentum        float64 `db:"Momentum"`
	RefractiveIndex float64 `db:"RefractiveIndex"`
}

type RunConditionsSource interface {
	RunConditions(runNumber int) (RunConditions, error)
}

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// OpenRunConditions picks the run conditions source of a configuration: the
// built-in run log with no_db, the RunConditions table otherwise. The returned
// function closes the database connection.
func OpenRunConditions(config Configuration) (RunConditionsSource, func() error, error) {
	if config.NoDB {
		return RunLog{}, func() error { return nil }, nil
	}
	db, err := ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to database %s at %s: %w", config.DBName, config.Host, err)
	}
	return NewDBRunConditions(db), db.Close, nil
}

// DBRunConditions reads the RunConditions table, where each row covers the
// runs between MinRun and MaxRun.
type DBRunConditions struct {
	db *sqlx.DB
}

func NewDBRunConditions(db *sqlx.DB) *DBRunConditions {
	return &DBRunConditions{db: db}
}

func (d *DBRunConditions) RunConditions(runNumber int) (RunConditions, error) {
	query := "SELECT Momentum, RefractiveIndex FROM RunConditions WHERE MinRun <= %d and MaxRun >= %d"
	query = fmt.Sprintf(query, runNumber, runNumber)

	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading run %d conditions from database", runNumber), "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	rows, err := d.db.Queryx(query)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return RunConditions{}, errMessage
	}
	defer rows.Close()

	found := false
	result := RunConditions{}
	for rows.Next() {
		if found {
			return RunConditions{}, fmt.Errorf("more than one RunConditions row covers run %d", runNumber)
		}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return RunConditions{}, errMessage
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return RunConditions{}, fmt.Errorf("error reading DB rows: %w", err)
	}
	if !found {
		return RunConditions{}, fmt.Errorf("no RunConditions row covers run %d", runNumber)
	}
	return result, nil
}
