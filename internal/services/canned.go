package services

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"govassist-backend/internal/models"
)

const electoralServicesText = "Voter registration and electoral services are provided by the Election Commission of India. Use the Voters' Service Portal at https://voters.eci.gov.in " +
	"to register as a new voter, correct your details or download your e-EPIC. The voter helpline number is 1950."

// Built-in chat answers. Order matters: the first keyword found in a message wins.
var defaultChatEntries = []CannedEntry{
	{
		Keyword: "aadhaar",
		Response: "Aadhaar is a 12-digit unique identity number issued by the Unique Identification Authority of India (UIDAI) to residents of India. " +
			"You can enrol at any Aadhaar Seva Kendra, update your address online, and download your e-Aadhaar from https://myaadhaar.uidai.gov.in. " +
			"For help, call the UIDAI toll-free number 1947.",
	},
	{
		Keyword: "digilocker",
		Response: "DigiLocker is the Government of India's digital document wallet. It lets you store and share verified documents such as your driving licence, " +
			"vehicle registration, PAN card and mark sheets, which are legally valid as originals. Sign up at https://www.digilocker.gov.in with your Aadhaar-linked mobile number.",
	},
	{
		Keyword: "gst",
		Response: "The Goods and Services Tax (GST) is a unified indirect tax levied on the supply of goods and services across India. " +
			"Businesses above the turnover threshold must register and file returns on the GST portal at https://www.gst.gov.in. " +
			"The GST helpdesk is reachable at 1800-103-4786.",
	},
	{
		Keyword: "umang",
		Response: "UMANG (Unified Mobile Application for New-age Governance) gives access to more than 1,200 central and state government services in a single app, " +
			"including EPFO, PAN, Aadhaar and utility bill payments. Download it from https://web.umang.gov.in or your mobile app store.",
	},
	{
		Keyword: "mygov",
		Response: "MyGov is the citizen engagement platform of the Government of India. You can take part in discussions, polls, quizzes and tasks that help shape policy. " +
			"Register at https://www.mygov.in to participate.",
	},
	{
		Keyword: "digital india",
		Response: "Digital India is the flagship programme to transform India into a digitally empowered society and knowledge economy. " +
			"It covers digital infrastructure, governance and services on demand, and digital empowerment of citizens. Learn more at https://www.digitalindia.gov.in.",
	},
	{
		Keyword: "bhim",
		Response: "BHIM (Bharat Interface for Money) is a UPI-based payment app from the National Payments Corporation of India. " +
			"It lets you send and receive money instantly using a UPI ID, mobile number or QR code. See https://www.bhimupi.org.in for details.",
	},
	{
		Keyword: "passport",
		Response: "Passport applications are handled through Passport Seva. Register at https://www.passportindia.gov.in, fill in the online application, pay the fee " +
			"and book an appointment at your nearest Passport Seva Kendra or Post Office Passport Seva Kendra. Carry original documents on the appointment date.",
	},
	{
		Keyword: "pan card",
		Response: "A Permanent Account Number (PAN) is issued by the Income Tax Department. You can apply for a new PAN or request corrections online through " +
			"NSDL (https://www.onlineservices.nsdl.com) or UTIITSL, or get an instant e-PAN using Aadhaar on the income tax e-filing portal.",
	},
	{Keyword: "voter", Response: electoralServicesText},
	{Keyword: "electoral", Response: electoralServicesText},
	{
		Keyword: "e-governance",
		Response: "India's e-governance initiatives include Aadhaar, DigiLocker, UMANG, MyGov, BHIM and the Digital India programme. " +
			"Ask me about any of them and I will share how to access the service.",
	},
}

const defaultChatText = "Thank you for your question about Government of India services. I can help with information on Aadhaar, DigiLocker, UMANG, MyGov, " +
	"Digital India, GST, passports, PAN cards and voter services. For anything else, please visit https://www.india.gov.in, the National Portal of India."

var defaultImageEntries = []CannedEntry{
	{
		Keyword: "aadhaar",
		Response: "This appears to be an Aadhaar card. It typically shows the holder's name, date of birth, gender, address, photograph and 12-digit Aadhaar number. " +
			"Mask the first eight digits before sharing copies, and verify authenticity at https://myaadhaar.uidai.gov.in.",
	},
	{
		Keyword: "pan",
		Response: "This appears to be a PAN card. It shows the 10-character Permanent Account Number, the holder's name, father's name, date of birth and signature. " +
			"Link your PAN with Aadhaar on the income tax e-filing portal if you have not done so.",
	},
	{
		Keyword: "passport",
		Response: "This appears to be an Indian passport. Key details include the passport number, date of issue and expiry, place of issue and the holder's personal details. " +
			"Renew it through https://www.passportindia.gov.in before it expires.",
	},
	{
		Keyword: "voter",
		Response: "This appears to be a voter ID (EPIC) card issued by the Election Commission of India. It shows the EPIC number, the voter's name, and relation details. " +
			"Check your enrolment at https://voters.eci.gov.in.",
	},
	{
		Keyword: "driving",
		Response: "This appears to be a driving licence. It lists the licence number, validity dates, vehicle classes and the holder's details. " +
			"A digital copy in DigiLocker or mParivahan is accepted as valid.",
	},
	{
		Keyword: "ration",
		Response: "This appears to be a ration card issued under the National Food Security Act. It lists household members and entitlements. " +
			"Under One Nation One Ration Card it can be used at any fair price shop in India.",
	},
	{
		Keyword: "birth",
		Response: "This appears to be a birth certificate. It records the child's name, date and place of birth and parents' names, and is issued by the local registrar. " +
			"It is required for school admission, passports and Aadhaar enrolment.",
	},
}

const defaultImageText = "I could not identify this document type. Government documents commonly handled here include Aadhaar, PAN, passport, voter ID, " +
	"driving licence, ration card and birth certificate. Please describe the document or upload a clearer image."

// DefaultFallback returns the built-in canned tables.
func DefaultFallback() *Fallback {
	return NewFallback(mustTable(defaultChatEntries, defaultChatText), mustTable(defaultImageEntries, defaultImageText))
}

func mustTable(entries []CannedEntry, defaultText string) *ResponseTable {
	t, err := NewResponseTable(entries, defaultText)
	if err != nil {
		panic(fmt.Sprintf("built-in canned table: %v", err))
	}
	return t
}

// FallbackFile is the YAML layout of CANNED_RESPONSES_FILE.
//
//	chat:
//	  default: "..."
//	  responses:
//	    - keyword: aadhaar
//	      response: "..."
//	image:
//	  default: "..."
//	  responses: [...]
type FallbackFile struct {
	Chat  *TableFile `yaml:"chat"`
	Image *TableFile `yaml:"image"`
}

type TableFile struct {
	Default   string                  `yaml:"default"`
	Responses []models.CannedResponse `yaml:"responses"`
}

// LoadFallbackFile reads canned tables from a YAML file. A missing section
// keeps the built-in table for that kind; a present section must have a default.
func LoadFallbackFile(path string) (*Fallback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read canned responses: %w", err)
	}
	return ParseFallbackYAML(data)
}

func ParseFallbackYAML(data []byte) (*Fallback, error) {
	var file FallbackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse canned responses: %w", err)
	}

	builtin := DefaultFallback()
	chat, err := tableFromFile(file.Chat, builtin.chat)
	if err != nil {
		return nil, fmt.Errorf("chat table: %w", err)
	}
	image, err := tableFromFile(file.Image, builtin.image)
	if err != nil {
		return nil, fmt.Errorf("image table: %w", err)
	}
	return NewFallback(chat, image), nil
}

func tableFromFile(section *TableFile, builtin *ResponseTable) (*ResponseTable, error) {
	if section == nil {
		return builtin, nil
	}
	entries := make([]CannedEntry, 0, len(section.Responses))
	for _, r := range section.Responses {
		entries = append(entries, CannedEntry{Keyword: r.Keyword, Response: r.Response})
	}
	return NewResponseTable(entries, section.Default)
}

// FallbackFromRecords builds tables from canned_responses rows. Rows are
// ordered by Position; the row with keyword "default" supplies the default.
// A kind with no rows keeps the built-in table.
func FallbackFromRecords(records []models.CannedResponse) (*Fallback, error) {
	byKind := map[string][]models.CannedResponse{}
	for _, r := range records {
		switch r.Kind {
		case models.CannedKindChat, models.CannedKindImage:
			byKind[r.Kind] = append(byKind[r.Kind], r)
		default:
			return nil, fmt.Errorf("canned response %q: unknown kind %q", r.Keyword, r.Kind)
		}
	}

	builtin := DefaultFallback()
	chat, err := tableFromRecords(byKind[models.CannedKindChat], builtin.chat)
	if err != nil {
		return nil, fmt.Errorf("chat table: %w", err)
	}
	image, err := tableFromRecords(byKind[models.CannedKindImage], builtin.image)
	if err != nil {
		return nil, fmt.Errorf("image table: %w", err)
	}
	return NewFallback(chat, image), nil
}

func tableFromRecords(rows []models.CannedResponse, builtin *ResponseTable) (*ResponseTable, error) {
	if len(rows) == 0 {
		return builtin, nil
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	var defaultText string
	entries := make([]CannedEntry, 0, len(rows))
	for _, r := range rows {
		if r.Keyword == models.CannedDefaultKeyword {
			defaultText = r.Response
			continue
		}
		entries = append(entries, CannedEntry{Keyword: r.Keyword, Response: r.Response})
	}
	return NewResponseTable(entries, defaultText)
}

// Records flattens both tables into canned_responses rows, defaults last.
func (f *Fallback) Records() []models.CannedResponse {
	var out []models.CannedResponse
	add := func(kind string, t *ResponseTable) {
		for i, e := range t.entries {
			out = append(out, models.CannedResponse{Kind: kind, Keyword: e.Keyword, Response: e.Response, Position: i + 1})
		}
		out = append(out, models.CannedResponse{
			Kind:     kind,
			Keyword:  models.CannedDefaultKeyword,
			Response: t.defaultText,
			Position: len(t.entries) + 1,
		})
	}
	add(models.CannedKindChat, f.chat)
	add(models.CannedKindImage, f.image)
	return out
}
