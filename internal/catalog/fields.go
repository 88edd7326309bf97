package catalog

// Code identifies one of the canonical accounting fields every export is
// mapped onto.
type Code string

const (
	JournalEntryID       Code = "journal_entry_id"
	LineNumber           Code = "line_number"
	Description          Code = "description"
	LineDescription      Code = "line_description"
	PostingDate          Code = "posting_date"
	FiscalYear           Code = "fiscal_year"
	PeriodNumber         Code = "period_number"
	GLAccountNumber      Code = "gl_account_number"
	GLAccountName        Code = "gl_account_name"
	Amount               Code = "amount"
	DebitAmount          Code = "debit_amount"
	CreditAmount         Code = "credit_amount"
	DebitCreditIndicator Code = "debit_credit_indicator"
	PreparedBy           Code = "prepared_by"
	EntryDate            Code = "entry_date"
	EntryTime            Code = "entry_time"
	VendorID             Code = "vendor_id"
	DocumentNumber       Code = "document_number"
)

// DataType describes the expected content of a canonical field.
type DataType string

const (
	TypeText         DataType = "text"
	TypeNumeric      DataType = "numeric"
	TypeDate         DataType = "date"
	TypeAlphanumeric DataType = "alphanumeric"
	TypeCurrency     DataType = "currency"
)

// Field is one canonical accounting concept. The set is fixed at catalog
// load time and read-only during a mapping session.
type Field struct {
	Code        Code
	DisplayName string
	DataType    DataType
}

// coreFields is the built-in field set, matching the standardized
// header/detail output schema.
var coreFields = []Field{
	{JournalEntryID, "ID del Asiento", TypeAlphanumeric},
	{LineNumber, "Número de Línea del Asiento", TypeNumeric},
	{Description, "Descripción del Encabezado", TypeText},
	{LineDescription, "Descripción de la Línea", TypeText},
	{PostingDate, "Fecha Efectiva", TypeDate},
	{FiscalYear, "Año Fiscal", TypeNumeric},
	{PeriodNumber, "Período", TypeNumeric},
	{GLAccountNumber, "Número de Cuenta Contable", TypeAlphanumeric},
	{GLAccountName, "Nombre de Cuenta Contable", TypeText},
	{Amount, "Importe", TypeCurrency},
	{DebitAmount, "Importe Debe", TypeCurrency},
	{CreditAmount, "Importe Haber", TypeCurrency},
	{DebitCreditIndicator, "Indicador Debe/Haber", TypeText},
	{PreparedBy, "Introducido Por", TypeText},
	{EntryDate, "Fecha de Introducción", TypeDate},
	{EntryTime, "Hora de Introducción", TypeText},
	{VendorID, "ID Tercero", TypeAlphanumeric},
	{DocumentNumber, "Número de Documento", TypeAlphanumeric},
}

// Codes returns all canonical field codes.
func Codes() []Code {
	out := make([]Code, len(coreFields))
	for i, f := range coreFields {
		out[i] = f.Code
	}
	return out
}

// IsCanonical reports whether c is one of the fixed canonical codes.
// Analyzer pseudo-types (is_date, amount_like, ...) must never leak past
// this check.
func IsCanonical(c Code) bool {
	for _, f := range coreFields {
		if f.Code == c {
			return true
		}
	}
	return false
}

// HeaderFields is the output schema of the header CSV, one row per journal
// entry.
var HeaderFields = []Code{
	JournalEntryID, Description, PostingDate, FiscalYear, PeriodNumber,
	PreparedBy, EntryDate, EntryTime, DocumentNumber,
}

// DetailFields is the output schema of the detail CSV, one row per journal
// line.
var DetailFields = []Code{
	JournalEntryID, LineNumber, LineDescription, GLAccountNumber,
	GLAccountName, Amount, DebitAmount, CreditAmount,
	DebitCreditIndicator, VendorID,
}
