package document

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	chargedomain "github.com/smallbiznis/chargeflow/internal/charge/domain"
)

// maxPosition bounds point positions so point-time expansion stays cheap.
const maxPosition = 10000

type parserState int

const (
	stateRoot parserState = iota
	stateHeader
	stateOperation
	stateChargeGroup
	stateChargeType
	stateSeries
	stateInterval
	statePoint
	stateDone
)

func (s parserState) String() string {
	switch s {
	case stateRoot:
		return "root"
	case stateHeader:
		return "document header"
	case stateOperation:
		return "operation"
	case stateChargeGroup:
		return elemChargeGroup
	case stateChargeType:
		return elemChargeType
	case stateSeries:
		return elemSeriesPeriod
	case stateInterval:
		return elemTimeInterval
	case statePoint:
		return elemPoint
	case stateDone:
		return "end of document"
	default:
		return "unknown"
	}
}

// fields holds raw leaf values keyed by element name; a key is present once
// the element has been seen, even when its content is blank.
type fields map[string]string

func (f fields) has(name string) bool {
	_, ok := f[name]
	return ok
}

type operationDraft struct {
	record     fields
	chargeType fields
	series     fields
	interval   fields
	points     []fields
}

// machine is the parser state plus everything collected so far. step is its
// transition function; it never reads from a stream itself.
type machine struct {
	state      parserState
	leaf       string
	text       strings.Builder
	recordName string

	header     fields
	document   chargedomain.Document
	headerDone bool

	op         *operationDraft
	point      fields
	operations []chargedomain.ChargeOperation
}

func newMachine() *machine {
	return &machine{state: stateRoot, header: fields{}}
}

// Parse reads one market document from r.
func Parse(r io.Reader) (chargedomain.Document, []chargedomain.ChargeOperation, error) {
	return ParseTokens(NewXMLTokenSource(r))
}

// ParseTokens drives the parser over an arbitrary token source.
func ParseTokens(src TokenSource) (chargedomain.Document, []chargedomain.ChargeOperation, error) {
	m := newMachine()
	for {
		tok, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return chargedomain.Document{}, nil, err
		}
		if err := m.step(tok); err != nil {
			return chargedomain.Document{}, nil, err
		}
	}
	return m.finish()
}

func (m *machine) step(tok Token) error {
	if m.leaf != "" {
		return m.stepLeaf(tok)
	}
	switch tok.Kind {
	case TokenStart:
		return m.enter(tok.Name)
	case TokenEnd:
		return m.leave(tok.Name)
	case TokenText:
		return schemaError("unexpected text %q in %s", tok.Value, m.state)
	default:
		return schemaError("invalid token kind %s", tok.Kind)
	}
}

func (m *machine) stepLeaf(tok Token) error {
	switch tok.Kind {
	case TokenText:
		m.text.WriteString(tok.Value)
		return nil
	case TokenEnd:
		if tok.Name != m.leaf {
			return schemaError("expected end of %q, got end of %q", m.leaf, tok.Name)
		}
		m.current()[m.leaf] = m.text.String()
		m.leaf = ""
		m.text.Reset()
		return nil
	default:
		return schemaError("element %q is not allowed inside %q", tok.Name, m.leaf)
	}
}

func (m *machine) enter(name string) error {
	switch m.state {
	case stateRoot:
		if name != RootElement {
			return schemaError("unexpected root element %q", name)
		}
		m.state = stateHeader
		return nil

	case stateHeader:
		if headerFields[name] {
			if m.recordName != "" {
				return schemaError("header element %q after first operation", name)
			}
			return m.openLeaf(name)
		}
		if m.recordName == "" {
			if err := m.finishHeader(); err != nil {
				return err
			}
			m.recordName = name
		} else if name != m.recordName {
			return schemaError("unexpected element %q between operations", name)
		}
		m.op = &operationDraft{record: fields{}}
		m.state = stateOperation
		return nil

	case stateOperation:
		if operationFields[name] {
			return m.openLeaf(name)
		}
		if name == elemChargeGroup && m.op.chargeType == nil {
			m.state = stateChargeGroup
			return nil
		}

	case stateChargeGroup:
		if name == elemChargeType && m.op.chargeType == nil {
			m.op.chargeType = fields{}
			m.state = stateChargeType
			return nil
		}

	case stateChargeType:
		if chargeTypeFields[name] {
			return m.openLeaf(name)
		}
		if name == elemSeriesPeriod && m.op.series == nil {
			m.op.series = fields{}
			m.state = stateSeries
			return nil
		}

	case stateSeries:
		if seriesFields[name] {
			return m.openLeaf(name)
		}
		if name == elemTimeInterval && m.op.interval == nil {
			m.op.interval = fields{}
			m.state = stateInterval
			return nil
		}
		if name == elemPoint {
			m.point = fields{}
			m.state = statePoint
			return nil
		}

	case stateInterval:
		if intervalFields[name] {
			return m.openLeaf(name)
		}

	case statePoint:
		if pointFields[name] {
			return m.openLeaf(name)
		}
	}
	return schemaError("unexpected element %q in %s", name, m.state)
}

func (m *machine) leave(name string) error {
	switch m.state {
	case stateHeader:
		if name != RootElement {
			break
		}
		if !m.headerDone {
			if err := m.finishHeader(); err != nil {
				return err
			}
		}
		m.state = stateDone
		return nil

	case stateOperation:
		if name != m.recordName {
			break
		}
		op, err := m.op.build()
		if err != nil {
			return err
		}
		if len(m.operations) > 0 && m.operations[0].MeteringPointID != op.MeteringPointID {
			return fmt.Errorf("%w: operation %q groups by %q, bundle groups by %q",
				ErrInconsistentGrouping, op.OperationID, op.MeteringPointID, m.operations[0].MeteringPointID)
		}
		m.operations = append(m.operations, op)
		m.op = nil
		m.state = stateHeader
		return nil

	case stateChargeGroup:
		if name == elemChargeGroup {
			m.state = stateOperation
			return nil
		}

	case stateChargeType:
		if name == elemChargeType {
			m.state = stateChargeGroup
			return nil
		}

	case stateSeries:
		if name == elemSeriesPeriod {
			m.state = stateChargeType
			return nil
		}

	case stateInterval:
		if name == elemTimeInterval {
			m.state = stateSeries
			return nil
		}

	case statePoint:
		if name == elemPoint {
			m.op.points = append(m.op.points, m.point)
			m.point = nil
			m.state = stateSeries
			return nil
		}
	}
	return schemaError("unexpected end of %q in %s", name, m.state)
}

func (m *machine) openLeaf(name string) error {
	if m.current().has(name) {
		return schemaError("duplicate element %q in %s", name, m.state)
	}
	m.leaf = name
	m.text.Reset()
	return nil
}

// current returns the field set the active state writes leaves into.
func (m *machine) current() fields {
	switch m.state {
	case stateHeader:
		return m.header
	case stateOperation:
		return m.op.record
	case stateChargeType:
		return m.op.chargeType
	case stateSeries:
		return m.op.series
	case stateInterval:
		return m.op.interval
	case statePoint:
		return m.point
	default:
		return fields{}
	}
}

func (m *machine) finishHeader() error {
	for _, name := range requiredHeaderFields {
		if !m.header.has(name) {
			return malformedError("document is missing %q", name)
		}
	}
	createdAt, err := parseTime(m.header[elemCreatedDateTime], elemCreatedDateTime)
	if err != nil {
		return err
	}
	m.document = chargedomain.Document{
		ID:                     m.header[elemMRID],
		Type:                   m.header[elemType],
		BusinessReasonCode:     m.header[elemProcessType],
		IndustryClassification: m.header[elemBusinessSector],
		CreatedAt:              createdAt,
		Sender: chargedomain.MarketParticipantRef{
			ID:   m.header[elemSenderID],
			Role: parseRole(m.header[elemSenderRole]),
		},
		Recipient: chargedomain.MarketParticipantRef{
			ID:   m.header[elemReceiverID],
			Role: parseRole(m.header[elemReceiverRole]),
		},
	}
	m.headerDone = true
	return nil
}

func (m *machine) finish() (chargedomain.Document, []chargedomain.ChargeOperation, error) {
	if m.state != stateDone {
		return chargedomain.Document{}, nil, schemaError("document ended inside %s", m.state)
	}
	if len(m.operations) == 0 {
		return chargedomain.Document{}, nil, fmt.Errorf("%w: document %q has no operations", ErrEmptyBundle, m.document.ID)
	}
	return m.document, m.operations, nil
}

func (d *operationDraft) build() (chargedomain.ChargeOperation, error) {
	if !d.record.has(elemMRID) {
		return chargedomain.ChargeOperation{}, malformedError("operation is missing %q", elemMRID)
	}
	opID := d.record[elemMRID]
	if d.chargeType == nil {
		return chargedomain.ChargeOperation{}, malformedError("operation %q is missing %s/%s", opID, elemChargeGroup, elemChargeType)
	}
	for _, name := range requiredChargeTypeFields {
		if !d.chargeType.has(name) {
			return chargedomain.ChargeOperation{}, malformedError("operation %q is missing %q", opID, name)
		}
	}

	ct := d.chargeType
	start, err := parseTime(ct[elemEffectiveDate], elemEffectiveDate)
	if err != nil {
		return chargedomain.ChargeOperation{}, err
	}
	end, err := parseOptionalTime(ct[elemTerminationDate], elemTerminationDate)
	if err != nil {
		return chargedomain.ChargeOperation{}, err
	}
	transparent, err := parseBool(ct[elemTransparentInvoicing], elemTransparentInvoicing)
	if err != nil {
		return chargedomain.ChargeOperation{}, err
	}
	tax, err := parseBool(ct[elemTaxIndicator], elemTaxIndicator)
	if err != nil {
		return chargedomain.ChargeOperation{}, err
	}

	op := chargedomain.ChargeOperation{
		OperationID:          opID,
		MeteringPointID:      d.record[elemMeteringPoint],
		ChargeType:           parseChargeType(ct[elemType]),
		ChargeID:             ct[elemMRID],
		ChargeOwnerID:        ct[elemChargeOwner],
		Name:                 ct[elemName],
		Description:          ct[elemDescription],
		Resolution:           parseResolution(ct[elemPriceResolution]),
		TaxIndicator:         tax,
		TransparentInvoicing: transparent,
		VatClassification:    parseVatClassification(ct[elemVatPayer]),
		StartTime:            start,
		EndTime:              end,
	}
	if d.series != nil {
		if err := d.buildSeries(&op); err != nil {
			return chargedomain.ChargeOperation{}, err
		}
	}
	return op, nil
}

func (d *operationDraft) buildSeries(op *chargedomain.ChargeOperation) error {
	op.PriceResolution = op.Resolution
	if d.series.has(elemResolution) {
		op.PriceResolution = parseResolution(d.series[elemResolution])
	}
	if d.interval == nil || !d.interval.has(elemStart) || !d.interval.has(elemEnd) {
		return malformedError("operation %q price series is missing %s", op.OperationID, elemTimeInterval)
	}
	seriesStart, err := parseTime(d.interval[elemStart], elemStart)
	if err != nil {
		return err
	}
	seriesEnd, err := parseTime(d.interval[elemEnd], elemEnd)
	if err != nil {
		return err
	}
	op.SeriesStart = &seriesStart
	op.SeriesEnd = &seriesEnd

	op.Points = make([]chargedomain.Point, 0, len(d.points))
	for _, p := range d.points {
		if !p.has(elemPosition) || !p.has(elemPriceAmount) {
			return malformedError("operation %q has a point without %q or %q", op.OperationID, elemPosition, elemPriceAmount)
		}
		position, err := strconv.Atoi(p[elemPosition])
		if err != nil || position < 1 || position > maxPosition {
			return malformedError("operation %q has invalid point position %q", op.OperationID, p[elemPosition])
		}
		price, err := decimal.NewFromString(p[elemPriceAmount])
		if err != nil {
			return malformedError("operation %q has invalid price %q", op.OperationID, p[elemPriceAmount])
		}
		at := seriesStart
		for i := 1; i < position; i++ {
			at = op.PriceResolution.Next(at)
		}
		op.Points = append(op.Points, chargedomain.Point{Position: position, Price: price, Time: at})
	}
	return nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00"}

func parseTime(value, element string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, malformedError("invalid timestamp %q in %q", value, element)
}

func parseOptionalTime(value, element string) (*time.Time, error) {
	t, err := parseTime(value, element)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func parseBool(value, element string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, malformedError("invalid boolean %q in %q", value, element)
	}
	return b, nil
}

func parseChargeType(code string) chargedomain.ChargeType {
	switch strings.TrimSpace(code) {
	case "D01":
		return chargedomain.ChargeTypeSubscription
	case "D02":
		return chargedomain.ChargeTypeFee
	case "D03":
		return chargedomain.ChargeTypeTariff
	default:
		return chargedomain.ChargeTypeUnknown
	}
}

func parseResolution(code string) chargedomain.Resolution {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "":
		return ""
	case string(chargedomain.ResolutionPT15M):
		return chargedomain.ResolutionPT15M
	case string(chargedomain.ResolutionPT1H):
		return chargedomain.ResolutionPT1H
	case string(chargedomain.ResolutionP1D):
		return chargedomain.ResolutionP1D
	case string(chargedomain.ResolutionP1M):
		return chargedomain.ResolutionP1M
	default:
		return chargedomain.ResolutionUnknown
	}
}

func parseVatClassification(code string) chargedomain.VatClassification {
	switch strings.TrimSpace(code) {
	case "D01":
		return chargedomain.VatClassificationNoVat
	case "D02":
		return chargedomain.VatClassificationVat25
	default:
		return chargedomain.VatClassificationUnknown
	}
}

func parseRole(code string) chargedomain.MarketParticipantRole {
	switch role := chargedomain.MarketParticipantRole(strings.TrimSpace(code)); role {
	case chargedomain.RoleGridAccessProvider,
		chargedomain.RoleSystemOperator,
		chargedomain.RoleMeteringPointAdmin,
		chargedomain.RoleEnergySupplier,
		chargedomain.RoleBalanceResponsible,
		chargedomain.RoleMeteredDataResponsible:
		return role
	default:
		return chargedomain.RoleUnknown
	}
}

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaValidation, fmt.Sprintf(format, args...))
}

func malformedError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedContent, fmt.Sprintf(format, args...))
}
