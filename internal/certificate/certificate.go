// Package certificate issues proof-of-completion artifacts: a unique
// certificate number, a rendered SVG embedded as a data URI, a persisted
// record and a best-effort email to the learner.
package certificate

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html"
	"math/big"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewNumber returns a certificate number of the form
// CERT-<unix-ms>-<9 base36 chars>. The timestamp plus 9 characters of random
// entropy make collisions negligible at the platform's scale; the database's
// unique index is the hard backstop.
func NewNumber() (string, error) {
	suffix := make([]byte, 9)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = base36[n.Int64()]
	}
	return fmt.Sprintf("CERT-%d-%s", time.Now().UTC().UnixMilli(), suffix), nil
}

// RenderSVG produces the fixed-layout certificate with the learner's name,
// program title, completion date and certificate number interpolated.
// Inputs are escaped so learner-supplied names cannot inject markup.
func RenderSVG(studentName, programName string, completedAt time.Time, number string) string {
	date := completedAt.Format("January 2, 2006")
	return fmt.Sprintf(`<svg width="1000" height="700" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <style>
      .certificate-bg { fill: #f5f5f5; stroke: #333; stroke-width: 3; }
      .certificate-border { fill: none; stroke: #d4af37; stroke-width: 8; }
      .title { font-size: 48px; font-weight: bold; text-anchor: middle; }
      .subtitle { font-size: 32px; text-anchor: middle; font-style: italic; }
      .content { font-size: 24px; text-anchor: middle; }
      .label { font-size: 18px; text-anchor: middle; }
    </style>
  </defs>

  <rect width="1000" height="700" class="certificate-bg"/>
  <rect x="20" y="20" width="960" height="660" class="certificate-border"/>

  <text x="500" y="100" class="title">Certificate of Completion</text>

  <text x="500" y="200" class="content">This is to certify that</text>
  <text x="500" y="270" class="subtitle">%s</text>

  <text x="500" y="350" class="content">has successfully completed</text>
  <text x="500" y="420" class="subtitle">%s</text>

  <text x="500" y="500" class="content">Completion Date: %s</text>
  <text x="500" y="550" class="label">Certificate Number: %s</text>

  <text x="500" y="650" class="label">Open Student</text>
</svg>`, html.EscapeString(studentName), html.EscapeString(programName), date, number)
}

// DataURI encodes a rendered SVG as an inline data reference. Certificates
// are stored this way rather than in external object storage.
func DataURI(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
