package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCSV = `ID,Name,Power,Killpoints,Alliance,T1 Kills,T2 Kills,T3 Kills,T4 Kills,T5 Kills,Deads,Rss Gathered,Rss Assistance,Helps
11111,Alice,"50,123,456","1,200,000",KoA,0,0,100,"2,000","3,000",500,"900,000,000","100,000,000",1234
22222,Bob,"30,000,000",Skipped,,0,0,0,0,0,0,Unknown,0,0
0,Skipped,0,0,,0,0,0,0,0,0,0,0,0
`

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2, "row without governor id must be dropped")

	alice := rows[0]
	require.Equal(t, int64(11111), alice.GovernorID)
	require.Equal(t, "Alice", alice.GovernorName)
	require.Equal(t, "KoA", alice.AllianceName)
	require.Equal(t, int64(50_123_456), alice.Power)
	require.Equal(t, int64(1_200_000), alice.KillPoints)
	require.Equal(t, int64(2000), alice.T4Kills)
	require.Equal(t, int64(500), alice.Dead)
	require.Equal(t, int64(900_000_000), alice.RssGathered)

	bob := rows[1]
	require.Equal(t, int64(22222), bob.GovernorID)
	require.Zero(t, bob.KillPoints, "Skipped cells stay zero")
	require.Zero(t, bob.RssGathered, "Unknown cells stay zero")
}

func TestParseCSV_MissingRequiredColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Power,Killpoints\n1,2\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "ID")
}

func TestParseCSV_MalformedNumber(t *testing.T) {
	csv := "ID,Name,Power\n11111,Alice,not-a-number\n"
	_, err := ParseCSV(strings.NewReader(csv))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Power")
}

func TestParseCSV_UnknownColumnsIgnored(t *testing.T) {
	csv := "ID,Name,Power,Future Column\n11111,Alice,100,whatever\n"
	rows, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(100), rows[0].Power)
}

func TestParseCSV_BlankNameDefaulted(t *testing.T) {
	csv := "ID,Name,Power\n11111,,100\n"
	rows, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Unknown", rows[0].GovernorName)
}
