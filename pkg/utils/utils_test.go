package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-service/internal/domain/errs"
)

func TestParseDoctorName(t *testing.T) {
	tests := []struct {
		raw  string
		want ParsedName
	}{
		{"Dr. Ayşe Yılmaz", ParsedName{Title: "Dr.", GivenName: "Ayşe", FamilyName: "Yılmaz"}},
		{"Demir", ParsedName{FamilyName: "Demir"}},
		{"Uzm. Dr. Mehmet Ali Kaya", ParsedName{Title: "Uzm. Dr.", GivenName: "Mehmet Ali", FamilyName: "Kaya"}},
		{"Prof.Dr. Zeynep Ak", ParsedName{Title: "Prof.Dr.", GivenName: "Zeynep", FamilyName: "Ak"}},
		{"doç dr  Can   Er", ParsedName{Title: "doç dr", GivenName: "Can", FamilyName: "Er"}},
		{"Dr. Öğr. Üyesi Selin Tan", ParsedName{Title: "Dr. Öğr. Üyesi", GivenName: "Selin", FamilyName: "Tan"}},
		{"Drake Smith", ParsedName{GivenName: "Drake", FamilyName: "Smith"}},
		{"Opal Stone", ParsedName{GivenName: "Opal", FamilyName: "Stone"}},
		{"Dr.", ParsedName{Title: "Dr."}},
		{"   ", ParsedName{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDoctorName(tt.raw))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"05321234567", "+905321234567", true},
		{"5321234567", "+905321234567", true},
		{"0532 123 45 67", "+905321234567", true},
		{"+90 (532) 123-4567", "+905321234567", true},
		{"90532123456", "+90532123456", true},
		{"0090 532 123 45 67", "+905321234567", true},
		{"12345", "12345", false},
		{"+44 20 7946 0958", "+44 20 7946 0958", false},
	}
	for _, tt := range tests {
		got, ok := NormalizePhone(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	for _, raw := range []string{"05321234567", "5321234567", "12345", "0090 532 123 45 67", "abc", "", "+1 555 0100"} {
		once, _ := NormalizePhone(raw)
		twice, _ := NormalizePhone(once)
		assert.Equal(t, once, twice, raw)
	}
}

func TestValidatePhone(t *testing.T) {
	got, err := ValidatePhone("0532 123 45 67")
	require.NoError(t, err)
	assert.Equal(t, "+905321234567", got)

	got, err = ValidatePhone("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ValidatePhone("12345")
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, errs.CodeUnrecognizedPhoneFormat, ve.Code)
}

func TestFoldTurkish(t *testing.T) {
	assert.Equal(t, "gunduz", FoldTurkish("GÜNDÜZ"))
	assert.Equal(t, "icap", FoldTurkish("İCAP"))
	assert.Equal(t, "gece nobeti", FoldTurkish("Gece Nöbeti"))
	assert.Equal(t, "istanbul", FoldTurkish("ISTANBUL"))
	assert.Equal(t, "cocuk sagligi", FoldTurkish("ÇOCUK SAĞLIĞI"))
	assert.Equal(t, "isil ozturk", FoldTurkish("Işıl Öztürk"))
	// decomposed input folds the same as precomposed
	assert.Equal(t, "gunduz", FoldTurkish("Gu\u0308ndu\u0308z"))
}

func TestDepartmentCode(t *testing.T) {
	assert.Equal(t, "ACIL_SERVI", DepartmentCode("Acil Servis"))
	assert.Equal(t, "GOGUS_HAST", DepartmentCode("Göğüs Hastalıkları"))
	assert.Equal(t, "KBB", DepartmentCode("K.B.B."))
	assert.Equal(t, "", DepartmentCode("  "))
	assert.Equal(t, "COCUK_CERR", DepartmentCode("Çocuk Cerrahisi"))
	assert.Equal(t, "IC_HASTALI", DepartmentCode("İç Hastalıkları"))
}

func TestValidateSourceURL(t *testing.T) {
	assert.NoError(t, ValidateSourceURL("https://hastane.gov.tr/nobet.xlsx"))
	assert.NoError(t, ValidateSourceURL("http://10.0.0.4:8080/list"))

	for _, bad := range []string{"ftp://host/file.csv", "hastane.gov.tr/nobet", "https://", "::"} {
		err := ValidateSourceURL(bad)
		var ve *errs.ValidationError
		require.True(t, errors.As(err, &ve), bad)
		assert.Equal(t, "url", ve.Field)
	}
}
