package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/squad-analytics/checkout-capacity/pkg/config"
)

const rowsCSV = `store,weekday,period,arrivals,service,current,min,max,test,sla wait,sla pct,sla max wait,cust/pdv
loja-01,sat,10:00,300,90,12,0,15,0,0.3,90,2,25
loja-02,sat,11:00,300,90,9,0,10,11,0.3,90,2,25
`

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.csv")
	if err := os.WriteFile(path, []byte(rowsCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func defaultSpec(t *testing.T) *config.SizingSpec {
	t.Helper()
	spec := config.DefaultSizingSpec()
	spec.Workers = 2
	return &spec
}

func TestRunSize_Totals(t *testing.T) {
	var buf bytes.Buffer
	opts := sizeOptions{input: writeInput(t)}
	if err := runSize(context.Background(), &buf, defaultSpec(t), opts, false); err != nil {
		t.Fatalf("runSize: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"current  20 PDVs", "max      20 PDVs", "test     20 PDVs"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRunSize_OutputsAndMetrics(t *testing.T) {
	dir := t.TempDir()
	opts := sizeOptions{
		input:       writeInput(t),
		output:      filepath.Join(dir, "sized.csv"),
		metricsFile: filepath.Join(dir, "sizing.prom"),
		table:       true,
	}
	var buf bytes.Buffer
	if err := runSize(context.Background(), &buf, defaultSpec(t), opts, false); err != nil {
		t.Fatalf("runSize: %v", err)
	}
	if !strings.Contains(buf.String(), "loja-02/sat/11:00") {
		t.Errorf("expected table output, got:\n%s", buf.String())
	}
	if _, err := os.Stat(opts.output); err != nil {
		t.Errorf("expected output file: %v", err)
	}
	prom, err := os.ReadFile(opts.metricsFile)
	if err != nil {
		t.Fatalf("expected metrics file: %v", err)
	}
	if !strings.Contains(string(prom), "checkout_required_servers") {
		t.Errorf("expected required servers gauge in metrics file")
	}
}

func TestRunSize_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := runSize(context.Background(), &buf, defaultSpec(t), sizeOptions{input: writeInput(t)}, true); err != nil {
		t.Fatalf("runSize: %v", err)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("expected 2 rows, got %d", len(decoded))
	}
}

func TestRunSize_MissingInput(t *testing.T) {
	var buf bytes.Buffer
	opts := sizeOptions{input: filepath.Join(t.TempDir(), "missing.csv")}
	if err := runSize(context.Background(), &buf, defaultSpec(t), opts, false); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestLoadSizingSpec_FlagsOverride(t *testing.T) {
	t.Setenv(config.EnvSLAKind, "conditional-wait")
	cmd := sizeCmd
	if err := cmd.Flags().Set("sla", "percent-served"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("workers", "3"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("max-servers", "120"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		cmd.Flags().Lookup("sla").Changed = false
		cmd.Flags().Lookup("workers").Changed = false
		cmd.Flags().Lookup("max-servers").Changed = false
	})

	spec, err := loadSizingSpec(cmd, sizeOptions{sla: "percent-served", workers: 3, maxServers: 120})
	if err != nil {
		t.Fatalf("loadSizingSpec: %v", err)
	}
	if spec.Kind() != config.PercentServed {
		t.Errorf("expected flag to override env, got %s", spec.SLAKind)
	}
	if spec.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", spec.Workers)
	}
	if spec.MaxServers != 120 {
		t.Errorf("expected maxServers 120, got %d", spec.MaxServers)
	}

	if _, err := loadSizingSpec(cmd, sizeOptions{sla: "fastest", workers: 3, maxServers: 120}); err == nil {
		t.Error("expected error for unknown SLA kind")
	}
}

func TestRunAnalyze(t *testing.T) {
	var buf bytes.Buffer
	opts := analyzeOptions{arrival: 50, serviceTime: 90, servers: 2, maxWait: 2, buckets: 4}
	if err := runAnalyze(&buf, opts, false); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Utilization:               0.6250", "Served within 2 min:", "k=4", "k>4"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRunAnalyze_Unstable(t *testing.T) {
	var buf bytes.Buffer
	err := runAnalyze(&buf, analyzeOptions{arrival: 50, serviceTime: 90, servers: 1}, false)
	if err == nil || !strings.Contains(err.Error(), "at least 2 PDVs") {
		t.Errorf("expected unstable queue error, got %v", err)
	}
}

func TestRunAnalyze_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := runAnalyze(&buf, analyzeOptions{arrival: 50, serviceTime: 90, servers: 2}, true); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded["servers"] != 2.0 {
		t.Errorf("expected servers=2, got %v", decoded["servers"])
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CHECKOUT_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFileVar, path)
	t.Setenv("CHECKOUT_TEST_VALUE", "")
	os.Unsetenv("CHECKOUT_TEST_VALUE")
	if err := loadEnvFile(); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("CHECKOUT_TEST_VALUE"); got != "from-file" {
		t.Errorf("expected value from env file, got %q", got)
	}

	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "missing.env"))
	if err := loadEnvFile(); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}
