package importer

import (
	"strings"
	"testing"

	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRosterStudents(t *testing.T) {
	input := "\ufeffRegistrationNo,FirstName,LastName,OtherNames,Phone,Email,Course\n" +
		"SCT211-0001/2020, Jane ,Wanjiru,,0712345678,jane@example.com,BSc IT\n" +
		",,,,,,\n" +
		"\n" +
		"sct211-0002/2020,John,Kamau,Mwangi,+254712345679,John@Example.com,BSc CS\n"

	records, err := ReadRoster(strings.NewReader(input), StudentKeyColumn)
	require.NoError(t, err)

	want := []services.RosterRecord{
		{Key: "SCT211-0001/2020", Firstname: "Jane", Lastname: "Wanjiru", Phone: "0712345678", Email: "jane@example.com"},
		{Key: "sct211-0002/2020", Firstname: "John", Lastname: "Kamau", Othernames: "Mwangi", Phone: "+254712345679", Email: "John@Example.com"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRosterSupervisorsShortRow(t *testing.T) {
	input := "staffno,firstname,lastname,phone,email\nSTF-1,Peter,Otieno,0711000001\n"

	records, err := ReadRoster(strings.NewReader(input), SupervisorKeyColumn)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "STF-1", records[0].Key)
	assert.Empty(t, records[0].Email)
}

func TestReadRosterErrors(t *testing.T) {
	_, err := ReadRoster(strings.NewReader(""), StudentKeyColumn)
	assert.EqualError(t, err, "empty file")

	_, err = ReadRoster(strings.NewReader("registrationNo,firstname,lastname,phone\n"), StudentKeyColumn)
	assert.EqualError(t, err, "missing column email")

	_, err = ReadRoster(strings.NewReader("firstname,lastname,phone,email\n"), SupervisorKeyColumn)
	assert.EqualError(t, err, "missing column staffNo")

	_, err = ReadRoster(strings.NewReader("staffNo,firstname,lastname,phone,email\n\"STF-1,Peter\n"), SupervisorKeyColumn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
