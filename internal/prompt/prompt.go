// Package prompt renders the fact-check instruction sent to the LLM.
package prompt

import (
	"fmt"
	"strings"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

// System is the role statement used by providers that accept a separate
// system message.
const System = "Anda adalah AI fact-checker profesional yang objektif dan hanya menjawab dengan JSON murni."

const (
	missingDomain  = "Tidak ada domain"
	missingTitle   = "Tidak ada judul"
	missingURL     = "Tidak ada URL"
	missingSnippet = "Tidak ada snippet"
)

const schema = `{
  "explanation": "Penjelasan singkat kesimpulan (1-2 kalimat)",
  "analysis": "Analisis mendalam dengan menyebutkan nama domain sumber",
  "sources_used": ["domain1.com", "domain2.com"],
  "source_stances": [
    {
      "source_index": 1,
      "stance": "SUPPORT|OPPOSE|NEUTRAL",
      "reasoning": "Alasan singkat posisi sumber terhadap klaim",
      "quote": "Kutipan pendek dari ringkasan sumber (opsional)"
    }
  ]
}`

// Build renders the prompt for claim and its sources. The output depends
// only on its inputs.
func Build(claim string, sources []model.SourceResult) string {
	var b strings.Builder

	b.WriteString("Anda adalah AI fact-checker profesional. Tugas Anda: analisis klaim berdasarkan hasil pencarian dan tentukan posisi setiap sumber terhadap klaim.\n\n")
	b.WriteString("=== KLAIM YANG HARUS DIANALISIS ===\n")
	fmt.Fprintf(&b, "%q\n\n", claim)

	if len(sources) == 0 {
		b.WriteString("=== DATA HASIL PENCARIAN ===\n")
		b.WriteString("Tidak ada sumber yang ditemukan untuk klaim ini.\n\n")
		b.WriteString("=== INSTRUKSI ===\n")
		b.WriteString("- Karena tidak ada sumber, nyatakan dengan jelas bahwa bukti tidak cukup untuk memverifikasi klaim.\n")
		b.WriteString("- Jangan mengarang sumber. Kosongkan \"sources_used\" dan \"source_stances\".\n\n")
	} else {
		fmt.Fprintf(&b, "=== DATA HASIL PENCARIAN (%d sumber) ===\n", len(sources))
		for i, s := range sources {
			writeSource(&b, i+1, s)
		}
		b.WriteString("=== INSTRUKSI ===\n")
		b.WriteString("1. Baca setiap sumber; perhatikan domain dan ringkasannya.\n")
		b.WriteString("2. Untuk SETIAP sumber, tentukan stance: \"SUPPORT\" jika mendukung klaim, \"OPPOSE\" jika membantah klaim, \"NEUTRAL\" jika tidak membahas atau tidak jelas.\n")
		b.WriteString("3. Gunakan \"source_index\" sesuai nomor SUMBER di atas.\n")
		b.WriteString("4. Dalam analisis, sebut nama domain sumber (mis. \"Menurut kompas.com ...\"), bukan nomor sumber.\n")
		b.WriteString("5. Jika data tidak cukup atau sumber saling bertentangan, jelaskan hal itu.\n\n")
	}

	b.WriteString("=== FORMAT OUTPUT ===\n")
	b.WriteString("WAJIB output satu objek JSON murni tanpa markdown dan tanpa teks lain, dengan skema:\n")
	b.WriteString(schema)
	b.WriteString("\n\nGunakan bahasa Indonesia yang jelas dan objektif. Mulai analisis sekarang.")
	return b.String()
}

func writeSource(b *strings.Builder, n int, s model.SourceResult) {
	fmt.Fprintf(b, "SUMBER %d:\n", n)
	fmt.Fprintf(b, "  Domain: %s\n", orDefault(s.DisplayLink, missingDomain))
	fmt.Fprintf(b, "  Judul: %s\n", orDefault(s.Title, missingTitle))
	fmt.Fprintf(b, "  URL: %s\n", orDefault(s.Link, missingURL))
	fmt.Fprintf(b, "  Ringkasan: %s\n\n", orDefault(oneLine(s.Snippet), missingSnippet))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
