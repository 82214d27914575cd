package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/piso/internal/app"
	"github.com/evcraddock/piso/internal/email"
	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
	"github.com/evcraddock/piso/internal/session"
)

func login(t *testing.T) {
	t.Helper()
	out, err := executeCommandWithInput(session.DefaultPassword+"\n", "login")
	if err != nil {
		t.Fatalf("login: %v\n%s", err, out)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	isolate(t)

	_, err := executeCommandWithInput("nope\n", "login")
	if err == nil || err.Error() != session.WrongPasswordMessage {
		t.Fatalf("err = %v, want %q", err, session.WrongPasswordMessage)
	}
}

func TestLoginEmptyInput(t *testing.T) {
	isolate(t)

	if _, err := executeCommandWithInput("", "login"); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestLoginTwiceAndLogout(t *testing.T) {
	isolate(t)
	login(t)

	out, err := executeCommandWithInput("", "login")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if !strings.Contains(out, "Already logged in.") {
		t.Errorf("output = %q", out)
	}

	out, err = executeCommand("logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(out, "✓ Logged out.") {
		t.Errorf("output = %q", out)
	}

	out, err = executeCommand("logout")
	if err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if !strings.Contains(out, "Not logged in.") {
		t.Errorf("output = %q", out)
	}
}

func TestListingShowDefault(t *testing.T) {
	isolate(t)

	out, err := executeCommand("listing", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, listing.Default().Title) {
		t.Errorf("output missing default title:\n%s", out)
	}
}

func TestListingSetRequiresLogin(t *testing.T) {
	isolate(t)

	_, err := executeCommand("listing", "set", "title", "Nuevo")
	if !errors.Is(err, session.ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
}

func TestListingSetArgs(t *testing.T) {
	isolate(t)

	if _, err := executeCommand("listing", "set", "title"); err == nil {
		t.Error("expected error for odd number of args")
	}
	if _, err := executeCommand("listing", "set", "colour", "azul"); !errors.Is(err, listing.ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
}

func TestListingSetAndShow(t *testing.T) {
	isolate(t)
	login(t)

	out, err := executeCommand("listing", "set", "title", "Ático luminoso", "price", "450.000 €")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(out, "✓ Listing saved") {
		t.Errorf("output = %q", out)
	}

	out, err = executeCommand("--format", "json", "listing", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var rec listing.Record
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if rec.Title != "Ático luminoso" || rec.Price != "450.000 €" || rec.ID == "" {
		t.Errorf("rec = %+v", rec)
	}
	if rec.Address != listing.Default().Address {
		t.Errorf("address = %q, want default kept", rec.Address)
	}

	// A second save updates the same row.
	if _, err := executeCommand("listing", "set", "floor", "5ª"); err != nil {
		t.Fatalf("second set: %v", err)
	}
	out, err = executeCommand("--format", "json", "listing", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var again listing.Record
	if err := json.Unmarshal([]byte(out), &again); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if again.ID != rec.ID || again.Floor != "5ª" || again.Title != "Ático luminoso" {
		t.Errorf("again = %+v", again)
	}
}

func TestPhotosAddAndRemove(t *testing.T) {
	isolate(t)
	login(t)

	if _, err := executeCommand("listing", "photos", "add", "https://example.com/5.jpg"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := executeCommand("listing", "photos", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "4  https://example.com/5.jpg") {
		t.Errorf("output = %s", out)
	}

	if _, err := executeCommand("listing", "photos", "rm", "0"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	out, err = executeCommand("--format", "json", "listing", "photos", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var photos []string
	if err := json.Unmarshal([]byte(out), &photos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(photos) != 4 || photos[3] != "https://example.com/5.jpg" {
		t.Errorf("photos = %v", photos)
	}
}

func TestPhotosAddBlank(t *testing.T) {
	isolate(t)
	login(t)

	if _, err := executeCommand("listing", "photos", "add", "  "); !errors.Is(err, listing.ErrBlankPhotoURL) {
		t.Errorf("err = %v, want ErrBlankPhotoURL", err)
	}
}

func TestPhotosRemoveInvalidIndex(t *testing.T) {
	isolate(t)
	login(t)

	if _, err := executeCommand("listing", "photos", "rm", "x"); err == nil {
		t.Error("expected error for non-numeric index")
	}
	if _, err := executeCommand("listing", "photos", "rm", "99"); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestLeadsLifecycle(t *testing.T) {
	tmp := isolate(t)

	out, err := executeCommand("leads", "submit", "--name", "Ana", "--email", "ana@example.com", "--phone", "600")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, app.MsgSubmitted) {
		t.Errorf("output = %q", out)
	}

	if _, err := executeCommand("leads", "list"); !errors.Is(err, session.ErrLocked) {
		t.Fatalf("list logged out: err = %v, want ErrLocked", err)
	}

	login(t)
	out, err = executeCommand("--format", "json", "leads", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var leads []lead.Lead
	if err := json.Unmarshal([]byte(out), &leads); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(leads) != 1 || leads[0].Name != "Ana" || leads[0].Message != lead.DefaultMessage {
		t.Fatalf("leads = %+v", leads)
	}

	out, err = executeCommand("leads", "export", "--dir", tmp)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(tmp, "contactos-piso-*.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("export files = %v (%v), output %q", matches, err, out)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), `"Ana","ana@example.com","600"`) {
		t.Errorf("csv = %s", data)
	}

	if _, err := executeCommand("leads", "rm", leads[0].ID); err != nil {
		t.Fatalf("rm: %v", err)
	}
	out, err = executeCommand("leads", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No leads yet.") {
		t.Errorf("output = %q", out)
	}
}

func TestLeadsSubmitMissingFields(t *testing.T) {
	isolate(t)

	_, err := executeCommand("leads", "submit", "--name", "Ana")
	var verr *lead.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if strings.Join(verr.Missing, ",") != "email,phone" {
		t.Errorf("missing = %v", verr.Missing)
	}
}

func TestLeadsExportEmpty(t *testing.T) {
	tmp := isolate(t)
	login(t)

	_, err := executeCommand("leads", "export", "--dir", tmp)
	if !errors.Is(err, lead.ErrEmptyRoster) {
		t.Errorf("err = %v, want ErrEmptyRoster", err)
	}
}

func TestLeadsRemoveUnknown(t *testing.T) {
	isolate(t)
	login(t)

	if _, err := executeCommand("leads", "rm", "missing"); !errors.Is(err, lead.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHashPassword(t *testing.T) {
	out, err := executeCommandWithInput("s3cret\n", "hash-password")
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	hash := strings.TrimSpace(out)
	if !session.BcryptHash(hash).Check("s3cret") {
		t.Errorf("hash %q does not verify", hash)
	}
}

func TestOpenStoresWrapsLeadsWhenMailConfigured(t *testing.T) {
	isolate(t)
	t.Setenv("PISO_SMTP_HOST", "smtp.example.com")
	t.Setenv("PISO_SMTP_FROM", "piso@example.com")
	t.Setenv("PISO_NOTIFY_EMAIL", "owner@example.com")

	cfg, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	st, err := openStores(cfg)
	if err != nil {
		t.Fatalf("openStores: %v", err)
	}
	defer st.close()

	if _, ok := st.leads.(*email.NotifyingStore); !ok {
		t.Errorf("leads store = %T, want *email.NotifyingStore", st.leads)
	}
}
