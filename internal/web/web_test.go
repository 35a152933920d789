package web

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/poshledger/internal/blob"
	"github.com/erazemk/poshledger/internal/db"
	"github.com/erazemk/poshledger/internal/model"
	"github.com/erazemk/poshledger/internal/store"
)

const testJWTSecret = "test-secret"

func newTestSite(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	blobs, err := blob.New(t.TempDir())
	if err != nil {
		t.Fatalf("blob.New: %v", err)
	}
	handler, err := NewRouter(database, blobs, testJWTSecret)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	createUser(t, database, "admin", model.RoleAdmin)
	return server, database
}

func createUser(t *testing.T, database *sql.DB, username, role string) {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if _, err := store.CreateUser(context.Background(), database, username, string(hash), role); err != nil {
		t.Fatalf("creating %s: %v", username, err)
	}
}

// signIn returns a client holding a session cookie for username.
func signIn(t *testing.T, server *httptest.Server, username string) *http.Client {
	t.Helper()
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	resp, err := client.PostForm(server.URL+"/login", url.Values{
		"username": {username},
		"password": {"password"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/items" {
		t.Fatalf("login as %s ended at %s with %d", username, resp.Request.URL.Path, resp.StatusCode)
	}
	return client
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

var dunkForm = url.Values{
	"item_name":      {"Nike Dunk"},
	"quantity":       {"1"},
	"original_price": {"40"},
	"sold_price":     {"100"},
	"purchase_date":  {"2024-01-15"},
	"store":          {"Outlet"},
}

func TestLoadTemplates(t *testing.T) {
	if _, err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"2.95", "$2.95"},
		{"1234.5", "$1,234.50"},
		{"-30.95", "-$30.95"},
	}
	for _, tt := range tests {
		if got := formatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("formatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImageSrc(t *testing.T) {
	if got := imageSrc("uploads/abc_shoe.jpg"); got != "/uploads/abc_shoe.jpg" {
		t.Errorf("imageSrc(stored) = %q", got)
	}
	if got := imageSrc("https://cdn.example.com/shoe.jpg"); got != "https://cdn.example.com/shoe.jpg" {
		t.Errorf("imageSrc(external) = %q", got)
	}
}

func TestRedirectsToLogin(t *testing.T) {
	server, _ := newTestSite(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	resp, err := client.Get(server.URL + "/items")
	if err != nil {
		t.Fatalf("GET /items: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("got %d to %q, want 303 to /login", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestAddItemShowsOnInventory(t *testing.T) {
	server, _ := newTestSite(t)
	client := signIn(t, server, "admin")

	resp, err := client.PostForm(server.URL+"/items", dunkForm)
	if err != nil {
		t.Fatalf("POST /items: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", resp.StatusCode)
	}

	for _, want := range []string{"Nike Dunk", "$100.00", "$20.00", "$40.00", "2024-02-14"} {
		if !strings.Contains(body, want) {
			t.Errorf("inventory page is missing %q", want)
		}
	}
}

func TestAddItemValidationRerendersForm(t *testing.T) {
	server, _ := newTestSite(t)
	client := signIn(t, server, "admin")

	form := url.Values{}
	for k, v := range dunkForm {
		form[k] = v
	}
	form.Set("store", "")
	form.Set("quantity", "-1")

	resp, err := client.PostForm(server.URL+"/items", form)
	if err != nil {
		t.Fatalf("POST /items: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "store is required") {
		t.Error("form does not show the store error")
	}
	if !strings.Contains(body, `value="Nike Dunk"`) {
		t.Error("form does not keep the entered name")
	}
}

func TestImportShowsReport(t *testing.T) {
	server, _ := newTestSite(t)
	client := signIn(t, server, "admin")

	csv := "Item Name,Quantity,Original Price,Sold Price,Poshmark Fee,Profit,Purchase Date,Store,Return By,Image URL\n" +
		"Scarf,2,5.00,,,,2024-03-01,Thrift,,\n" +
		"Boots,many,5.00,,,,2024-03-01,Thrift,,\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "closet.csv")
	part.Write([]byte(csv))
	mw.Close()

	resp, err := client.Post(server.URL+"/import", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /import: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Imported 1 item(s)") {
		t.Error("report does not show the imported count")
	}
	if !strings.Contains(body, "<td class=\"num\">3</td>") {
		t.Error("report does not list the failed line")
	}
}

func TestExportDownload(t *testing.T) {
	server, _ := newTestSite(t)
	client := signIn(t, server, "admin")

	if _, err := client.PostForm(server.URL+"/items", dunkForm); err != nil {
		t.Fatalf("POST /items: %v", err)
	}

	resp, err := client.Get(server.URL + "/export")
	if err != nil {
		t.Fatalf("GET /export: %v", err)
	}
	body := readBody(t, resp)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, exportFilename) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(body, "Nike Dunk,1,40.00,100.00,20.00,40.00,2024-01-15,Outlet,2024-02-14,") {
		t.Errorf("unexpected export:\n%s", body)
	}
}

func TestUsersPageAdminOnly(t *testing.T) {
	server, database := newTestSite(t)
	createUser(t, database, "reseller", model.RoleUser)

	resp, err := signIn(t, server, "reseller").Get(server.URL + "/users")
	if err != nil {
		t.Fatalf("GET /users: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("reseller: expected 403, got %d", resp.StatusCode)
	}

	resp, err = signIn(t, server, "admin").Get(server.URL + "/users")
	if err != nil {
		t.Fatalf("GET /users: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "reseller") {
		t.Errorf("admin: got %d, user list missing reseller", resp.StatusCode)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	server, _ := newTestSite(t)
	client := signIn(t, server, "admin")

	u, _ := url.Parse(server.URL)
	cookies := client.Jar.Cookies(u)

	resp, err := client.PostForm(server.URL+"/logout", nil)
	if err != nil {
		t.Fatalf("POST /logout: %v", err)
	}
	resp.Body.Close()

	// Replaying the old cookie must not get back in.
	replay := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	req, _ := http.NewRequest("GET", server.URL+"/items", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = replay.Do(req)
	if err != nil {
		t.Fatalf("GET /items: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("expected redirect to login with revoked cookie, got %d", resp.StatusCode)
	}
}
