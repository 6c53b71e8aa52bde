// Imaging metadata API
// Copyright (c) 2017, NCI, Australian National University.

package main

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/nci/gomemcache/memcache"
)

var (
	db       *sql.DB
	mc       *memcache.Client
	dbName   = flag.String("database", "meta", "database name")
	dbUser   = flag.String("user", "api", "database user name")
	dbPool   = flag.Int("pool", 8, "database pool size")
	dbLimit  = flag.Int("limit", 64, "database concurrent requests")
	httpPort = flag.Int("port", 8888, "http port")
	mcURI    = flag.String("memcache", "", "memcache uri host:port")
)

// Spit out a simple JSON-formatted error message for Content-Type: application/json
func httpJSONError(response http.ResponseWriter, err error, status int) {
	http.Error(response, fmt.Sprintf(`{ "error": %q }`, err.Error()), status)
}

type imagingPayload struct {
	Domains []string    `json:"domains"`
	Ranges  [][]float64 `json:"ranges"`
}

func handler(response http.ResponseWriter, request *http.Request) {

	response.Header().Set("Content-Type", "application/json")

	query := request.URL.Query()

	if _, ok := query["imaging"]; ok {

		var hash string

		if mc != nil {

			buff := md5.Sum([]byte(request.URL.RequestURI()))
			hash = hex.EncodeToString(buff[:])

			if cached, ok := mc.Get(hash); ok == nil {
				response.Write(cached.Value)
				return
			}
		}

		var payload string

		// Use Postgres prepared statements and placeholders for input checks.
		// The nullif() coerces Go's empty string zero value for a missing
		// dataset parameter into a proper null argument.

		err := db.QueryRow(
			`select value::text from imaging
				where dataset = nullif($1,'')::text`,
			request.FormValue("dataset"),
		).Scan(&payload)

		if err == sql.ErrNoRows {
			httpJSONError(response, fmt.Errorf("unknown dataset: %s", request.FormValue("dataset")), 404)
			return
		}
		if err != nil {
			httpJSONError(response, err, 400)
			return
		}

		response.Write([]byte(payload))

		if mc != nil {
			// don't care about errors; memcache may not necessarily retain this anyway
			mc.Set(&memcache.Item{Key: hash, Value: []byte(payload), Expiration: 3600})
		}

		return
	}

	if _, ok := query["put_imaging"]; ok {

		if request.Method != "POST" {
			httpJSONError(response, errors.New("put_imaging requires POST"), 405)
			return
		}

		value := request.FormValue("value")

		// reject anything that is not a well formed imaging document
		var payload imagingPayload
		if err := json.Unmarshal([]byte(value), &payload); err != nil {
			httpJSONError(response, fmt.Errorf("invalid imaging document: %v", err), 400)
			return
		}
		for _, pair := range payload.Ranges {
			if len(pair) != 2 {
				httpJSONError(response, fmt.Errorf("invalid wavelength range: %v", pair), 400)
				return
			}
		}

		_, err := db.Exec(
			`insert into imaging (dataset, value)
				values (nullif($1,'')::text, $2::jsonb)
				on conflict (dataset) do update set value = excluded.value`,
			request.FormValue("dataset"),
			value,
		)

		if err != nil {
			httpJSONError(response, err, 400)
			return
		}

		response.Write([]byte("{}"))
		return
	}

	httpJSONError(response, errors.New("unknown operation; currently supported: ?imaging, ?put_imaging"), 400)
}

func main() {

	flag.Parse()

	log.Printf("dbUser %s dbName %s dbPool %d httpPort %d", *dbUser, *dbName, *dbPool, *httpPort)

	dbinfo := fmt.Sprintf("user=%s host=/var/run/postgresql dbname=%s sslmode=disable", *dbUser, *dbName)

	var err error
	db, err = sql.Open("postgres", dbinfo)

	if err != nil {
		panic(err)
	}

	defer db.Close()

	db.SetMaxIdleConns(*dbPool)
	db.SetMaxOpenConns(*dbLimit)

	if *mcURI != "" {
		// lazy connection; errors returned in .Get
		mc = memcache.New(*mcURI)
	}

	http.HandleFunc("/meta", handler)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", *httpPort), nil))
}
