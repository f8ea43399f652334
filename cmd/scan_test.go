//go:build !integration

package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/adscan/internal/model"
)

func TestRunScan_AdsTxtTable(t *testing.T) {
	src := newTestSource(t)
	s := newTestScanner()

	var buf bytes.Buffer
	err := runScan(context.Background(), s, []string{src.URL + "/"}, scanOptions{Format: "table"}, &buf, io.Discard)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Ads.txt Results")
	assert.Contains(t, out, "2 entries found")
	assert.Contains(t, out, "google.com")
	assert.Contains(t, out, "RESELLER")
	assert.NotContains(t, out, "broken line")
}

func TestRunScan_SellersJSONCSV(t *testing.T) {
	src := newTestSource(t)
	s := newTestScanner()

	var buf bytes.Buffer
	err := runScan(context.Background(), s, []string{src.URL + "/sellers.json"}, scanOptions{Format: "csv"}, &buf, io.Discard)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "domain,name,sellerId,type,relationship,sourceUrl", lines[0])
	assert.Equal(t, `"alpha.com","Alpha Media","1","Direct","DIRECT","sellers.json"`, lines[1])
	assert.Equal(t, `"beta.com","Beta Exchange","2","Passthrough","RESELLER","sellers.json"`, lines[2])
}

func TestRunScan_FilterAndSort(t *testing.T) {
	src := newTestSource(t)
	s := newTestScanner()

	var buf bytes.Buffer
	opts := scanOptions{Format: "csv", Sort: "domain"}
	require.NoError(t, runScan(context.Background(), s, []string{src.URL}, opts, &buf, io.Discard))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], `"appnexus.com"`))
	assert.True(t, strings.HasPrefix(lines[2], `"google.com"`))

	buf.Reset()
	opts = scanOptions{Format: "csv", Filter: "GOOGLE"}
	require.NoError(t, runScan(context.Background(), s, []string{src.URL}, opts, &buf, io.Discard))
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], `"google.com"`))
}

func TestRunScan_FailureContinues(t *testing.T) {
	src := newTestSource(t)
	s := newTestScanner()

	var buf, errBuf bytes.Buffer
	inputs := []string{src.URL + "/bad/sellers.json", "", src.URL}
	err := runScan(context.Background(), s, inputs, scanOptions{Format: "json", ShowHistory: true}, &buf, &errBuf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 scans failed")

	out := buf.String()
	assert.Contains(t, out, `"domain": "google.com"`)
	assert.NotContains(t, out, "Failed to parse sellers.json")
	assert.NotContains(t, out, "Recent scans:")

	errOut := errBuf.String()
	assert.Contains(t, errOut, "Failed to parse sellers.json")
	assert.Contains(t, errOut, "Recent scans:")
	assert.Contains(t, errOut, "  1. "+src.URL)
	assert.Contains(t, errOut, "  2. "+src.URL+"/bad/sellers.json")

	// State reflects the last scan, which succeeded.
	assert.NoError(t, s.State().Err)
	assert.Len(t, s.History(), 2)
}

func TestRunScan_TableHistoryOnOut(t *testing.T) {
	src := newTestSource(t)
	s := newTestScanner()

	var buf, errBuf bytes.Buffer
	require.NoError(t, runScan(context.Background(), s, []string{src.URL}, scanOptions{ShowHistory: true}, &buf, &errBuf))
	assert.Contains(t, buf.String(), "Recent scans:")
	assert.Empty(t, errBuf.String())
}

func TestRunScan_MultipleInputsCSVCombined(t *testing.T) {
	src := newTestSource(t)
	s := newTestScanner()

	var buf, errBuf bytes.Buffer
	inputs := []string{src.URL, src.URL + "/bad/sellers.json", src.URL + "/sellers.json"}
	err := runScan(context.Background(), s, inputs, scanOptions{Format: "csv"}, &buf, &errBuf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 scans failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "domain,publisherId,relationship,type,sourceUrl,scannedUrl,name,sellerId", lines[0])
	assert.Equal(t, `"google.com","pub-2","DIRECT","f08c47fec0942fa0","ads.txt","`+src.URL+`","",""`, lines[1])
	assert.Equal(t, `"alpha.com","","DIRECT","Direct","sellers.json","`+src.URL+`/sellers.json","Alpha Media","1"`, lines[3])
	for _, line := range lines[1:] {
		assert.False(t, strings.HasPrefix(line, "domain,"), "header written more than once")
		assert.NotContains(t, line, "Failed")
	}

	assert.Contains(t, errBuf.String(), "Failed to parse sellers.json")
}

func TestRunScan_UnknownFormat(t *testing.T) {
	src := newTestSource(t)
	s := newTestScanner()

	err := runScan(context.Background(), s, []string{src.URL}, scanOptions{Format: "xml"}, &bytes.Buffer{}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestWriteHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	writeHistory(&buf, nil)
	assert.Contains(t, buf.String(), "(none)")
}

func TestPresent_DefaultKeepsFileOrder(t *testing.T) {
	entries := []model.ResultEntry{{Domain: "z.com"}, {Domain: "a.com"}}
	got := present(entries, scanOptions{})
	assert.Equal(t, "z.com", got[0].Domain)

	got = present(entries, scanOptions{Sort: "domain", Desc: true})
	assert.Equal(t, "z.com", got[0].Domain)
	got = present(entries, scanOptions{Sort: "domain"})
	assert.Equal(t, "a.com", got[0].Domain)
}
