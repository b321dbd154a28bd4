//go:build integration
// +build integration

package controllers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmission-service/config"
)

func getTestDB(t *testing.T) *sql.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5432"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "readmission_test"),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil
	}
	return db
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func registerBody(username string) []byte {
	data, _ := json.Marshal(map[string]string{
		"first_name": "Test",
		"last_name":  "Clinician",
		"username":   username,
		"password":   "s3cret-pass",
	})
	return data
}

// Two registrations without an email must both succeed: an omitted email is
// stored as NULL, and NULLs never collide on the unique index.
func TestRegisterTwiceWithoutEmail(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	config.DB = db
	t.Setenv("JWT_ACCESS_SECRET", "test-access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", Register)

	suffix := time.Now().UnixNano()
	first := fmt.Sprintf("noemail_a_%d", suffix)
	second := fmt.Sprintf("noemail_b_%d", suffix)
	defer func() {
		_, _ = db.Exec(`DELETE FROM users WHERE username IN ($1, $2)`, first, second)
	}()

	for i, username := range []string{first, second} {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(registerBody(username)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, "registration %d failed: %s", i+1, w.Body.String())

		var resp struct {
			User struct {
				Email *string `json:"email"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Nil(t, resp.User.Email, "registration %d must not echo an email", i+1)
	}

	var nullEmails int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM users WHERE username IN ($1, $2) AND email IS NULL
	`, first, second).Scan(&nullEmails)
	require.NoError(t, err)
	assert.Equal(t, 2, nullEmails, "omitted emails must be stored as NULL")
}
