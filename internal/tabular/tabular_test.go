package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOpts() Options {
	return Options{Delimiter: ",", HeaderRow: 1, HasHeaders: true}
}

func TestHeaders_Simple(t *testing.T) {
	names, err := Headers("Account,Description,Balance\n100-4000,Cash,10.00\n", defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", "Description", "Balance"}, names)
}

func TestHeaders_StripsBOM(t *testing.T) {
	names, err := Headers("\ufeffAccount,Balance\n100,1.00\n", defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", "Balance"}, names)
}

func TestHeaders_TabRepair(t *testing.T) {
	// Header pasted tab-separated over comma-delimited data.
	text := "Account\tFund\tAmount\n4000,100,50.00\n"
	names, err := Headers(text, defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", "Fund", "Amount"}, names)
}

func TestHeaders_NoTabRepairWhenHeaderRowNotFirst(t *testing.T) {
	text := "junk line\nAccount\tFund\n4000,100\n"
	opts := Options{Delimiter: ",", HeaderRow: 2, HasHeaders: true}
	names, err := Headers(text, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Account\tFund"}, names)
}

func TestHeaders_Synthesized(t *testing.T) {
	opts := Options{Delimiter: ",", HeaderRow: 1, HasHeaders: false}
	names, err := Headers("4000,Cash,10.00\n", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Column 1", "Column 2", "Column 3"}, names)
}

func TestEach_RowNumbersMapToFileLines(t *testing.T) {
	text := "Account,Balance\n100,1.00\n\n200,2.00\n"

	var nums []int
	var accounts []string
	err := Each(text, defaultOpts(), func(rowNum int, row Row) error {
		nums = append(nums, rowNum)
		accounts = append(accounts, row["Account"])
		return nil
	})
	require.NoError(t, err)

	// The blank line keeps its literal line number.
	assert.Equal(t, []int{2, 3, 4}, nums)
	assert.Equal(t, []string{"100", "", "200"}, accounts)
}

func TestEach_SkipsLinesBeforeHeaderRow(t *testing.T) {
	text := "report title\ngenerated 2025-06-30\nAccount,Balance\n100,1.00\n"
	opts := Options{Delimiter: ",", HeaderRow: 3, HasHeaders: true}

	var nums []int
	err := Each(text, opts, func(rowNum int, row Row) error {
		nums = append(nums, rowNum)
		assert.Equal(t, "100", row["Account"])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, nums)
}

func TestEach_ShortLinePaddedLongLineTruncated(t *testing.T) {
	text := "A,B,C\n1,2\n1,2,3,4\n"

	var rows []Row
	err := Each(text, defaultOpts(), func(rowNum int, row Row) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{"A": "1", "B": "2", "C": ""}, rows[0])
	assert.Equal(t, Row{"A": "1", "B": "2", "C": "3"}, rows[1])
}

func TestEach_Restartable(t *testing.T) {
	text := "Account,Balance\n100,1.00\n200,2.00\n"

	count := func() int {
		n := 0
		err := Each(text, defaultOpts(), func(int, Row) error {
			n++
			return nil
		})
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, 2, count())
	assert.Equal(t, 2, count())
}

func TestEach_TabDelimited(t *testing.T) {
	text := "Account\tBalance\n100\t1.00\n"
	opts := Options{Delimiter: "\t", HeaderRow: 1, HasHeaders: true}

	var rows []Row
	err := Each(text, opts, func(rowNum int, row Row) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1.00", rows[0]["Balance"])
}

func TestPreview_CapsRows(t *testing.T) {
	text := "Account,Balance\n"
	for i := 0; i < 60; i++ {
		text += "100,1.00\n"
	}

	names, rows, err := Preview(text, defaultOpts(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", "Balance"}, names)
	assert.Len(t, rows, DefaultPreviewRows)

	_, rows, err = Preview(text, defaultOpts(), 5)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestPreview_NoHeaders(t *testing.T) {
	opts := Options{Delimiter: ",", HeaderRow: 1, HasHeaders: false}
	names, rows, err := Preview("4000,10.00\n4010,20.00\n", opts, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Column 1", "Column 2"}, names)
	require.Len(t, rows, 2)
	assert.Equal(t, "4000", rows[0]["Column 1"])
	assert.Equal(t, "20.00", rows[1]["Column 2"])
}

func TestPreview_EmptyText(t *testing.T) {
	names, rows, err := Preview("", defaultOpts(), 10)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, rows)
}

func TestEach_QuotedFields(t *testing.T) {
	text := "Account,Description,Balance\n100,\"Cash, restricted\",5.00\n"

	var rows []Row
	err := Each(text, defaultOpts(), func(rowNum int, row Row) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cash, restricted", rows[0]["Description"])
}
