package render

// Document templates mirror the paper forms the office issued by hand.
// Account number and payment terms are municipal policy, fixed here.

const consentTemplate = `SOUHLAS K ZVLÁŠTNÍMU UŽÍVÁNÍ VEŘEJNÉHO PROSTRANSTVÍ

Číslo žádosti: {{.RequestID}}
Datum vystavení: {{.IssuedAt}}

Údaje žadatele:
Jméno/Název: {{.Record.ApplicantName}}
{{- if .Record.CompanyID}}
IČO: {{.Record.CompanyID}}
{{- end}}
{{- if .Record.ContactDetails}}
Kontakt: {{.Record.ContactDetails}}
{{- end}}

Údaje o užívání:
Účel užívání: {{.Record.PurposeOfUse}}
Místo: {{.Record.Location}}
Doba užívání: {{if .Record.DurationRaw}}{{.Record.DurationRaw}}{{else}}{{.Record.DurationDays}} dní{{end}}
{{- if gt .Record.AreaSqm 0.0}}
Výměra: {{.Record.AreaSqm}} m²
Poplatek: {{.Record.FeeCZK}} Kč
{{- end}}

Podmínky:
• Žadatel je povinen dodržovat všechny platné právní předpisy.
• Užívání je povoleno pouze v uvedeném rozsahu a době.
• Žadatel odpovídá za případné škody způsobené užíváním.
• Poplatek je splatný do 30 dnů od vystavení tohoto souhlasu.
`

const paymentTemplate = `PLATEBNÍ INSTRUKCE

Číslo žádosti: {{.RequestID}}
Částka k úhradě: {{.Record.FeeCZK}} Kč
Variabilní symbol: {{.Record.VariableSymbol}}
Číslo účtu: {{.AccountNumber}}
Splatnost: {{.DueDate}}

Prosím uhraďte poplatek ve stanovené lhůtě.
`
