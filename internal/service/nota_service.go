package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/numbering"
	"notaentrada/internal/repository"

	"github.com/google/uuid"
)

// NoteService drives a note from registration through conference and stock
// migration. Every mutating operation loads the note, validates the whole
// request on a working copy and writes once, appending exactly one timeline
// event; a rejected call leaves the stored note untouched.
type NoteService interface {
	CreateNote(ctx context.Context, actor string, req dto.CreateNoteRequest) (*dto.NoteResponse, error)
	Dispatch(ctx context.Context, noteID, actor string) (*dto.NoteResponse, error)
	RegisterPayment(ctx context.Context, noteID, actor string, req dto.RegisterPaymentRequest) (*dto.NoteResponse, error)
	AddProductLines(ctx context.Context, noteID, actor string, req dto.AddProductLinesRequest) (*dto.NoteResponse, error)
	ExplodeLine(ctx context.Context, noteID, lineID, actor string) (*dto.NoteResponse, error)
	CollapseLines(ctx context.Context, noteID, parentLineID, actor string) (*dto.NoteResponse, error)
	SubmitFieldsForLine(ctx context.Context, noteID, lineID, actor string, req dto.SubmitFieldsRequest) (*dto.SubmitFieldsResponse, error)
	ConfirmConference(ctx context.Context, noteID, actor string, lineIDs []string) (*dto.NoteResponse, error)
	MigrateConferredByCategory(ctx context.Context, noteID, actor string) (*dto.MigrationResult, error)
	GetNote(ctx context.Context, noteID string) (*dto.NoteResponse, error)
	GetTimeline(ctx context.Context, noteID string) ([]dto.TimelineEventResponse, error)
	ListNotes(ctx context.Context, filter dto.NoteFilter) (*dto.NoteListResponse, error)
	CheckIMEI(ctx context.Context, imei string) (dto.UniqueResult, error)
}

type noteService struct {
	noteEngine
	ids   *numbering.Generator
	imei  *IMEIChecker
	stock StockCollaborator
}

func NewNoteService(repo repository.NoteRepository, ids *numbering.Generator, stock StockCollaborator) NoteService {
	return &noteService{
		noteEngine: noteEngine{repo: repo, now: time.Now},
		ids:        ids,
		imei:       NewIMEIChecker(repo, stock),
		stock:      stock,
	}
}

// ── CreateNote ───────────────────────────────────────────────────────────────

func (s *noteService) CreateNote(ctx context.Context, actor string, req dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	n, err := buildNote(req)
	if err != nil {
		return nil, err
	}
	lines := make([]model.ProductLine, 0, len(req.Products))
	for i, in := range req.Products {
		l, err := buildLine("", i, in)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	// IDs are only allocated once the whole request is known to be valid.
	n.ID, err = s.ids.NextNoteID(ctx, s.now().Year())
	if err != nil {
		return nil, fmt.Errorf("gerar número da nota: %w", err)
	}
	n.CreatedAt = s.now()
	if err := s.attachLines(ctx, n, lines); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("nota criada para %s com %d linha(s), pagamento %s", n.Supplier, len(lines), n.PaymentType)
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionCreated, details: details, prev: n.Status}); err != nil {
		return nil, err
	}
	return noteToResponse(n), nil
}

func buildNote(req dto.CreateNoteRequest) (*model.IncomingNote, error) {
	supplier := strings.TrimSpace(req.Supplier)
	if supplier == "" {
		return nil, validationErr("", "", "supplier", "fornecedor é obrigatório")
	}
	entry, err := time.Parse("2006-01-02", strings.TrimSpace(req.EntryDate))
	if err != nil {
		return nil, validationErr("", "", "entry_date", "data de entrada inválida, use AAAA-MM-DD")
	}
	responsible := strings.TrimSpace(req.Responsible)
	if responsible == "" {
		return nil, validationErr("", "", "responsible", "responsável é obrigatório")
	}
	pt := model.PaymentType(req.PaymentType)
	if !pt.Valid() {
		return nil, validationErr("", "", "payment_type", "tipo de pagamento inválido: %q", req.PaymentType)
	}
	pm := model.PaymentMethod(req.PaymentMethod)
	if !pm.Valid() {
		return nil, validationErr("", "", "payment_method", "forma de pagamento inválida: %q", req.PaymentMethod)
	}
	if req.QtyInformed < 0 {
		return nil, validationErr("", "", "qty_informed", "quantidade informada não pode ser negativa")
	}
	if req.AmountInformed.IsNegative() {
		return nil, validationErr("", "", "amount_informed", "valor informado não pode ser negativo")
	}

	n := &model.IncomingNote{
		Supplier:        supplier,
		EntryDate:       entry,
		Responsible:     responsible,
		PaymentType:     pt,
		PaymentMethod:   pm,
		CurrentActuator: pt.InitialActuator(),
		Status:          model.StatusOpen,
		QtyInformed:     req.QtyInformed,
		AmountInformed:  req.AmountInformed,
		Urgent:          req.Urgent,
		Notes:           req.Notes,
	}

	if pm == model.PaymentPix {
		if req.Pix == nil {
			return nil, validationErr("", "", "pix", "dados PIX obrigatórios para pagamento via PIX")
		}
		key := strings.TrimSpace(req.Pix.Key)
		keyType := strings.TrimSpace(req.Pix.KeyType)
		beneficiary := strings.TrimSpace(req.Pix.Beneficiary)
		switch {
		case key == "":
			return nil, validationErr("", "", "pix.key", "chave PIX é obrigatória")
		case keyType == "":
			return nil, validationErr("", "", "pix.key_type", "tipo da chave PIX é obrigatório")
		case beneficiary == "":
			return nil, validationErr("", "", "pix.beneficiary", "favorecido PIX é obrigatório")
		}
		n.PixKey, n.PixKeyType, n.PixBeneficiary = &key, &keyType, &beneficiary
	}
	return n, nil
}

// buildLine validates one product line input. The returned line has no ID.
func buildLine(noteID string, idx int, in dto.ProductLineInput) (model.ProductLine, error) {
	field := func(name string) string { return fmt.Sprintf("products[%d].%s", idx, name) }

	pt := model.ProductType(in.ProductType)
	if !pt.Valid() {
		return model.ProductLine{}, validationErr(noteID, "", field("product_type"), "tipo de produto inválido: %q", in.ProductType)
	}
	brand, mdl := strings.TrimSpace(in.Brand), strings.TrimSpace(in.Model)
	if brand == "" {
		return model.ProductLine{}, validationErr(noteID, "", field("brand"), "marca é obrigatória")
	}
	if mdl == "" {
		return model.ProductLine{}, validationErr(noteID, "", field("model"), "modelo é obrigatório")
	}
	if in.Quantity < 1 {
		return model.ProductLine{}, validationErr(noteID, "", field("quantity"), "quantidade deve ser maior que zero")
	}
	if in.UnitCost.IsNegative() {
		return model.ProductLine{}, validationErr(noteID, "", field("unit_cost"), "custo unitário não pode ser negativo")
	}

	l := model.ProductLine{
		ProductType:      pt,
		Brand:            brand,
		Model:            mdl,
		UnitCost:         in.UnitCost,
		InspectionStatus: model.InspectionPending,
		BatteryHealth:    100,
	}
	if in.Color != nil && strings.TrimSpace(*in.Color) != "" {
		c := strings.TrimSpace(*in.Color)
		l.Color = &c
	}
	if in.BatteryHealth != nil {
		if *in.BatteryHealth < 0 || *in.BatteryHealth > 100 {
			return model.ProductLine{}, validationErr(noteID, "", field("battery_health"), "saúde da bateria deve estar entre 0 e 100")
		}
		l.BatteryHealth = *in.BatteryHealth
	}
	if in.Category != nil {
		c := model.Category(*in.Category)
		if !c.Valid() {
			return model.ProductLine{}, validationErr(noteID, "", field("category"), "categoria inválida: %q", *in.Category)
		}
		l.SetCategory(c)
	}
	if in.IMEI != nil && strings.TrimSpace(*in.IMEI) != "" {
		if pt != model.ProductDevice {
			return model.ProductLine{}, validationErr(noteID, "", field("imei"), "IMEI só se aplica a aparelhos")
		}
		imei := NormalizeIMEI(*in.IMEI)
		if len(imei) != imeiLength {
			return model.ProductLine{}, validationErr(noteID, "", field("imei"), "IMEI deve ter %d dígitos", imeiLength)
		}
		l.IMEI = &imei
	}
	l.SetQuantity(in.Quantity)
	return l, nil
}

// attachLines numbers the new lines, appends them to the note and flags the
// ones whose IMEI already exists elsewhere.
func (s *noteService) attachLines(ctx context.Context, n *model.IncomingNote, lines []model.ProductLine) error {
	from := len(n.Products)
	for i := range lines {
		id, err := s.ids.NextLineID(ctx, n.ID)
		if err != nil {
			return fmt.Errorf("gerar número da linha: %w", err)
		}
		lines[i].ID = id
		lines[i].NoteID = n.ID
		n.Products = append(n.Products, lines[i])
	}
	for i := from; i < len(n.Products); i++ {
		l := &n.Products[i]
		if !l.RequiresUnitFields() || l.IMEI == nil {
			continue
		}
		res, err := s.imei.lookupIMEI(ctx, n, l.ID, *l.IMEI)
		if err != nil {
			return err
		}
		l.DuplicateIMEI = res.Duplicate
		l.DuplicateLocation = res.ExistingLocation
	}
	return nil
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

func (s *noteService) Dispatch(ctx context.Context, noteID, actor string) (*dto.NoteResponse, error) {
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	prev := n.Status
	switch n.Status {
	case model.StatusOpen:
	case model.StatusWithDivergence:
		return nil, divergenceErr(n.ID)
	case model.StatusAwaitingFinance, model.StatusAwaitingStock, model.StatusPartialConference,
		model.StatusFullConference, model.StatusFinalized:
		return nil, transitionErr(n.ID, "", "nota já encaminhada (status %s)", n.Status)
	default:
		return nil, transitionErr(n.ID, "", "status desconhecido %q", n.Status)
	}

	switch n.CurrentActuator {
	case model.ActuatorFinance:
		n.Status = model.StatusAwaitingFinance
	case model.ActuatorStock:
		n.Status = model.StatusAwaitingStock
	default:
		return nil, transitionErr(n.ID, "", "nota sem departamento responsável")
	}

	details := fmt.Sprintf("encaminhada ao %s", actuatorLabel(n.CurrentActuator))
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionDispatched, details: details, prev: prev}); err != nil {
		return nil, err
	}
	return noteToResponse(n), nil
}

// ── RegisterPayment ──────────────────────────────────────────────────────────
// Before conference the payment releases the note to stock. After triage it
// settles what is still owed and closes the note once nothing is outstanding.

func (s *noteService) RegisterPayment(ctx context.Context, noteID, actor string, req dto.RegisterPaymentRequest) (*dto.NoteResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, validationErr(noteID, "", "amount", "valor do pagamento deve ser maior que zero")
	}
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	method := n.PaymentMethod
	if req.Method != nil {
		method = model.PaymentMethod(*req.Method)
		if !method.Valid() {
			return nil, validationErr(n.ID, "", "method", "forma de pagamento inválida: %q", *req.Method)
		}
	}

	prev := n.Status
	switch n.Status {
	case model.StatusOpen, model.StatusAwaitingFinance:
		if n.CurrentActuator != model.ActuatorFinance {
			return nil, transitionErr(n.ID, "", "pagamento antecipado não previsto para esta nota")
		}
		n.AmountPaid = n.AmountPaid.Add(req.Amount)
		n.CurrentActuator = model.ActuatorStock
		n.Status = model.StatusAwaitingStock
	case model.StatusFinalized:
		if n.CurrentActuator != model.ActuatorFinance {
			return nil, transitionErr(n.ID, "", "nota já quitada")
		}
		if outstanding := n.Outstanding(); req.Amount.GreaterThan(outstanding) {
			return nil, businessErr(n.ID, "", "amount", "valor %s excede o saldo devedor %s", req.Amount.StringFixed(2), outstanding.StringFixed(2))
		}
		n.AmountPaid = n.AmountPaid.Add(req.Amount)
		if !n.Outstanding().IsPositive() {
			n.CurrentActuator = model.ActuatorClosed
		}
	case model.StatusAwaitingStock, model.StatusPartialConference, model.StatusFullConference:
		return nil, transitionErr(n.ID, "", "nota em conferência no estoque")
	case model.StatusWithDivergence:
		return nil, divergenceErr(n.ID)
	default:
		return nil, transitionErr(n.ID, "", "status desconhecido %q", n.Status)
	}

	payment := &model.NotePayment{
		ID:     uuid.New(),
		NoteID: n.ID,
		Amount: req.Amount,
		Method: method,
		Actor:  actor,
		PaidAt: s.now(),
	}
	details := fmt.Sprintf("pagamento de R$ %s via %s; total pago R$ %s", req.Amount.StringFixed(2), method, n.AmountPaid.StringFixed(2))
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionPaymentRegistered, details: details, prev: prev, payment: payment}); err != nil {
		return nil, err
	}
	return noteToResponse(n), nil
}

// ── AddProductLines ──────────────────────────────────────────────────────────

func (s *noteService) AddProductLines(ctx context.Context, noteID, actor string, req dto.AddProductLinesRequest) (*dto.NoteResponse, error) {
	if len(req.Products) == 0 {
		return nil, validationErr(noteID, "", "products", "informe ao menos um produto")
	}
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := guardStockStage(n); err != nil {
		return nil, err
	}

	lines := make([]model.ProductLine, 0, len(req.Products))
	units := 0
	for i, in := range req.Products {
		l, err := buildLine(n.ID, i, in)
		if err != nil {
			return nil, err
		}
		units += l.Quantity
		lines = append(lines, l)
	}
	if err := s.attachLines(ctx, n, lines); err != nil {
		return nil, err
	}

	prev := n.Status
	if n.Status == model.StatusOpen {
		n.Status = model.StatusAwaitingStock
	}
	details := fmt.Sprintf("%d linha(s) cadastrada(s), %d unidade(s)", len(lines), units)
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionCadastrated, details: details, prev: prev}); err != nil {
		return nil, err
	}
	return noteToResponse(n), nil
}

// ── ExplodeLine / CollapseLines ──────────────────────────────────────────────

func (s *noteService) ExplodeLine(ctx context.Context, noteID, lineID, actor string) (*dto.NoteResponse, error) {
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := guardStockStage(n); err != nil {
		return nil, err
	}
	idx := n.LineIndex(lineID)
	if idx < 0 {
		return nil, validationErr(n.ID, lineID, "line_id", "linha inexistente")
	}
	line := n.Products[idx]
	if line.IsInspected() {
		return nil, transitionErr(n.ID, line.ID, "linha já conferida não pode ser explodida")
	}
	if line.Quantity <= 1 {
		return nil, transitionErr(n.ID, line.ID, "linha com quantidade %d não pode ser explodida", line.Quantity)
	}

	units := make([]model.ProductLine, 0, line.Quantity)
	for i := 1; i <= line.Quantity; i++ {
		units = append(units, line.Regrouped(numbering.UnitID(line.ID, i), &line.ID, 1))
	}

	products := make([]model.ProductLine, 0, len(n.Products)-1+len(units))
	products = append(products, n.Products[:idx]...)
	products = append(products, units...)
	products = append(products, n.Products[idx+1:]...)
	n.Products = products

	details := fmt.Sprintf("linha %s explodida em %d unidades", line.ID, len(units))
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionExploded, details: details, prev: n.Status}); err != nil {
		return nil, err
	}
	return noteToResponse(n), nil
}

func (s *noteService) CollapseLines(ctx context.Context, noteID, parentLineID, actor string) (*dto.NoteResponse, error) {
	parent := strings.TrimSpace(parentLineID)
	if parent == "" {
		return nil, validationErr(noteID, "", "parent_line_id", "linha de origem é obrigatória")
	}
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := guardStockStage(n); err != nil {
		return nil, err
	}

	var siblings []int
	for i := range n.Products {
		if p := n.Products[i].ParentLineID; p != nil && *p == parent {
			siblings = append(siblings, i)
		}
	}
	if len(siblings) == 0 {
		return nil, transitionErr(n.ID, parent, "nenhuma unidade explodida a partir de %s", parent)
	}
	for _, i := range siblings {
		if n.Products[i].IsInspected() {
			return nil, transitionErr(n.ID, n.Products[i].ID, "não é possível reagrupar unidades já conferidas")
		}
	}

	merged := n.Products[siblings[0]].Regrouped(parent, nil, len(siblings))

	products := make([]model.ProductLine, 0, len(n.Products)-len(siblings)+1)
	for i := range n.Products {
		switch {
		case i == siblings[0]:
			products = append(products, merged)
		case n.Products[i].ParentLineID != nil && *n.Products[i].ParentLineID == parent:
		default:
			products = append(products, n.Products[i])
		}
	}
	n.Products = products

	details := fmt.Sprintf("%d unidades reagrupadas em %s", len(siblings), parent)
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionCollapsed, details: details, prev: n.Status}); err != nil {
		return nil, err
	}
	return noteToResponse(n), nil
}

// ── SubmitFieldsForLine ──────────────────────────────────────────────────────
// A duplicate IMEI does not fail the call: the line keeps the IMEI, is flagged
// and the caller gets the existing location back. Conference stays blocked
// until a unique IMEI is submitted.

func (s *noteService) SubmitFieldsForLine(ctx context.Context, noteID, lineID, actor string, req dto.SubmitFieldsRequest) (*dto.SubmitFieldsResponse, error) {
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := guardStockStage(n); err != nil {
		return nil, err
	}
	idx := n.LineIndex(lineID)
	if idx < 0 {
		return nil, validationErr(n.ID, lineID, "line_id", "linha inexistente")
	}
	l := &n.Products[idx]
	if l.IsInspected() {
		return nil, transitionErr(n.ID, l.ID, "linha já conferida")
	}
	if !l.IsDevice() {
		return nil, validationErr(n.ID, l.ID, "imei", "IMEI, cor e categoria só se aplicam a aparelhos")
	}
	if l.Quantity != 1 {
		return nil, transitionErr(n.ID, l.ID, "linha com %d unidades: exploda a linha antes de informar o IMEI", l.Quantity)
	}

	imei := NormalizeIMEI(req.IMEI)
	if len(imei) != imeiLength {
		return nil, validationErr(n.ID, l.ID, "imei", "IMEI deve ter %d dígitos", imeiLength)
	}
	color := strings.TrimSpace(req.Color)
	if color == "" {
		return nil, validationErr(n.ID, l.ID, "color", "cor é obrigatória")
	}
	cat := model.Category(req.Category)
	if !cat.Valid() {
		return nil, validationErr(n.ID, l.ID, "category", "categoria inválida: %q", req.Category)
	}
	if req.BatteryHealth != nil && (*req.BatteryHealth < 0 || *req.BatteryHealth > 100) {
		return nil, validationErr(n.ID, l.ID, "battery_health", "saúde da bateria deve estar entre 0 e 100")
	}

	res, err := s.imei.lookupIMEI(ctx, n, l.ID, imei)
	if err != nil {
		return nil, err
	}

	l.IMEI = &imei
	l.Color = &color
	if req.BatteryHealth != nil {
		l.BatteryHealth = *req.BatteryHealth
	}
	l.SetCategory(cat)
	l.DuplicateIMEI = res.Duplicate
	l.DuplicateLocation = res.ExistingLocation

	details := fmt.Sprintf("linha %s: IMEI %s, cor %s, categoria %s", l.ID, imei, color, cat)
	if res.Duplicate {
		details += fmt.Sprintf(" (IMEI duplicado em %s)", *res.ExistingLocation)
	}
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionFieldsSubmitted, details: details, prev: n.Status}); err != nil {
		return nil, err
	}
	return &dto.SubmitFieldsResponse{
		Note:             *noteToResponse(n),
		Duplicate:        res.Duplicate,
		ExistingLocation: res.ExistingLocation,
	}, nil
}

// ── ConfirmConference ────────────────────────────────────────────────────────
// The whole batch is validated before any line is marked, so a single bad
// line rejects the call without partial conference.

func (s *noteService) ConfirmConference(ctx context.Context, noteID, actor string, lineIDs []string) (*dto.NoteResponse, error) {
	if len(lineIDs) == 0 {
		return nil, validationErr(noteID, "", "line_ids", "informe ao menos uma linha para conferir")
	}
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := guardStockStage(n); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(lineIDs))
	idxs := make([]int, 0, len(lineIDs))
	for _, id := range lineIDs {
		if seen[id] {
			return nil, validationErr(n.ID, id, "line_ids", "linha repetida na conferência")
		}
		seen[id] = true

		idx := n.LineIndex(id)
		if idx < 0 {
			return nil, validationErr(n.ID, id, "line_ids", "linha inexistente")
		}
		l := &n.Products[idx]
		if l.IsInspected() {
			return nil, transitionErr(n.ID, l.ID, "linha já conferida")
		}
		if l.DuplicateIMEI {
			return nil, duplicateErr(n.ID, l.ID, derefOr(l.IMEI, ""), derefOr(l.DuplicateLocation, "outro registro"))
		}
		if l.RequiresUnitFields() {
			if missing := l.MissingUnitFields(); len(missing) > 0 {
				return nil, validationErr(n.ID, l.ID, missing[0], "campos obrigatórios ausentes: %s", strings.Join(missing, ", "))
			}
			res, err := s.imei.lookupIMEI(ctx, n, l.ID, *l.IMEI)
			if err != nil {
				return nil, err
			}
			if res.Duplicate {
				return nil, duplicateErr(n.ID, l.ID, *l.IMEI, *res.ExistingLocation)
			}
		}
		idxs = append(idxs, idx)
	}

	units := 0
	for _, i := range idxs {
		n.Products[i].InspectionStatus = model.InspectionInspected
		units += n.Products[i].Quantity
	}
	prev := n.Status
	reconcile(n)
	n.Status = conferenceStatus(n)

	details := fmt.Sprintf("linhas conferidas: %s (%d unidade(s)); %d/%d", strings.Join(lineIDs, ", "), units, n.QtyConferred, n.QtyCadastrated)
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionConferred, details: details, prev: prev}); err != nil {
		return nil, err
	}
	return noteToResponse(n), nil
}

// ── MigrateConferredByCategory ───────────────────────────────────────────────

func (s *noteService) MigrateConferredByCategory(ctx context.Context, noteID, actor string) (*dto.MigrationResult, error) {
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	switch n.Status {
	case model.StatusFullConference, model.StatusFinalized:
	case model.StatusWithDivergence:
		return nil, divergenceErr(n.ID)
	case model.StatusOpen, model.StatusAwaitingFinance, model.StatusAwaitingStock, model.StatusPartialConference:
		return nil, transitionErr(n.ID, "", "migração exige conferência completa")
	default:
		return nil, transitionErr(n.ID, "", "status desconhecido %q", n.Status)
	}

	units, res := partitionForStock(n)
	if len(units) > 0 {
		// The stock side upserts by source line, so a replay inserts nothing.
		if _, err := s.stock.ReceiveMigration(ctx, n.ID, units); err != nil {
			return nil, fmt.Errorf("migrar nota %s para o estoque: %w", n.ID, err)
		}
	}
	if n.MigratedAt != nil {
		res.AlreadyDone = true
		return res, nil
	}

	at := s.now()
	n.MigratedAt = &at
	details := fmt.Sprintf("migrados: %d novo(s) para venda, %d seminovo(s) para aparelhos pendentes", res.NewCount, res.UsedGoodCount)
	if res.Skipped > 0 {
		details += fmt.Sprintf("; %d sem categoria", res.Skipped)
	}
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionMigrated, details: details, prev: n.Status}); err != nil {
		return nil, err
	}
	return res, nil
}

// partitionForStock maps the conferred device lines to stock units by
// category. Lines without a category cannot be placed and are only counted.
func partitionForStock(n *model.IncomingNote) ([]model.StockUnit, *dto.MigrationResult) {
	res := &dto.MigrationResult{NoteID: n.ID}
	var units []model.StockUnit
	for i := range n.Products {
		l := &n.Products[i]
		if !l.IsInspected() || !l.IsDevice() {
			continue
		}
		if l.Category == nil {
			res.Skipped += l.Quantity
			continue
		}
		u := model.StockUnit{
			SourceLineID:  l.ID,
			SourceNoteID:  n.ID,
			IMEI:          l.IMEI,
			Brand:         l.Brand,
			Model:         l.Model,
			Color:         l.Color,
			Category:      *l.Category,
			BatteryHealth: l.BatteryHealth,
			Quantity:      l.Quantity,
			UnitCost:      l.UnitCost,
		}
		switch *l.Category {
		case model.CategoryNew:
			u.Destination = model.DestinationSellable
			res.NewCount += l.Quantity
		case model.CategoryUsedGood:
			u.Destination = model.DestinationPendingDevices
			res.UsedGoodCount += l.Quantity
		}
		units = append(units, u)
	}
	return units, res
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *noteService) GetNote(ctx context.Context, noteID string) (*dto.NoteResponse, error) {
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return noteToResponse(n), nil
}

func (s *noteService) GetTimeline(ctx context.Context, noteID string) ([]dto.TimelineEventResponse, error) {
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return timelineToResponse(n.Timeline), nil
}

func (s *noteService) ListNotes(ctx context.Context, filter dto.NoteFilter) (*dto.NoteListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	f := repository.NoteFilter{
		Supplier: strings.TrimSpace(filter.Supplier),
		Urgent:   filter.Urgent,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	if filter.Status != "" {
		f.Status = model.NoteStatus(filter.Status)
		if !f.Status.Valid() {
			return nil, validationErr("", "", "status", "status inválido: %q", filter.Status)
		}
	}
	if filter.Actuator != "" {
		f.Actuator = model.Actuator(filter.Actuator)
		if !f.Actuator.Valid() {
			return nil, validationErr("", "", "actuator", "departamento inválido: %q", filter.Actuator)
		}
	}

	notes, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listar notas: %w", err)
	}
	data := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		r := noteToResponse(&notes[i])
		r.Timeline = nil
		data = append(data, *r)
	}
	return &dto.NoteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *noteService) CheckIMEI(ctx context.Context, imei string) (dto.UniqueResult, error) {
	normalized := NormalizeIMEI(imei)
	if len(normalized) != imeiLength {
		return dto.UniqueResult{IMEI: normalized}, validationErr("", "", "imei", "IMEI deve ter %d dígitos", imeiLength)
	}
	return s.imei.CheckUnique(ctx, normalized, "")
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
