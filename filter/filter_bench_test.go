package filter

import (
	"testing"
)

// BenchmarkFilter_Allows_NoFilters benchmarks the filter when no patterns are active
func BenchmarkFilter_Allows_NoFilters(b *testing.B) {
	f, err := New(Options{})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Allows("Quarterly results", "report.pdf")
	}
}

// BenchmarkFilter_Allows_WithIncludeFilter benchmarks the filter with include patterns
func BenchmarkFilter_Allows_WithIncludeFilter(b *testing.B) {
	f, err := New(Options{
		IncludeName: []string{`\.(pdf|xlsx|docx)$`},
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Allows("Quarterly results", "report.pdf")
	}
}
