package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

// Доля рыночной стоимости металла, рекомендуемая к выдаче
var loanToValueRatio = decimal.NewFromFloat(0.6)

var metalNames = map[string]string{
	"1": "Au",
	"2": "Ag",
	"3": "Pt",
	"4": "Pd",
}

type MetalRatesClient struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewMetalRatesClient создаёт клиент веб-сервиса ЦБ РФ с котировками драгметаллов
func NewMetalRatesClient(logger *logrus.Logger) *MetalRatesClient {
	return &MetalRatesClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// buildMetalsSOAPRequest формирует SOAP-запрос котировок за последние 7 дней
func buildMetalsSOAPRequest() string {
	fromDate := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	toDate := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
        <soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
            <soap12:Body>
                <DragMetDynamic xmlns="http://web.cbr.ru/">
                    <fromDate>%s</fromDate>
                    <ToDate>%s</ToDate>
                </DragMetDynamic>
            </soap12:Body>
        </soap12:Envelope>`, fromDate, toDate)
}

func (c *MetalRatesClient) sendRequest(soapRequest string) ([]byte, error) {
	req, err := http.NewRequest(
		"POST",
		"https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx",
		bytes.NewBuffer([]byte(soapRequest)),
	)
	if err != nil {
		return nil, err
	}

	// Установка заголовков
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/DragMetDynamic")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка при выполнении HTTP-запроса: %v", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении ответа: %v", err)
	}

	return rawBody, nil
}

// parseMetalsResponse извлекает последние котировки по каждому металлу
func parseMetalsResponse(rawBody []byte) ([]model.MetalRate, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("ошибка при разборе XML: %v", err)
	}

	elements := doc.FindElements("//diffgram/DragMetall/DrgMet")
	if len(elements) == 0 {
		return nil, errors.New("котировки драгметаллов не найдены")
	}

	// Последняя котировка по каждому коду металла
	latest := make(map[string]model.MetalRate)
	for _, el := range elements {
		codeEl := el.FindElement("./CodMet")
		priceEl := el.FindElement("./price")
		dateEl := el.FindElement("./DateMet")
		if codeEl == nil || priceEl == nil {
			continue
		}

		price, err := decimal.NewFromString(priceEl.Text())
		if err != nil {
			continue
		}

		code := codeEl.Text()
		name, ok := metalNames[code]
		if !ok {
			continue
		}

		rate := model.MetalRate{
			Code:  name,
			Name:  name,
			Price: price.InexactFloat64(),
		}
		if dateEl != nil {
			rate.Date = dateEl.Text()
		}
		latest[code] = rate
	}

	if len(latest) == 0 {
		return nil, errors.New("ни одна котировка не распознана")
	}

	rates := make([]model.MetalRate, 0, len(latest))
	for _, code := range []string{"1", "2", "3", "4"} {
		if rate, ok := latest[code]; ok {
			rates = append(rates, rate)
		}
	}
	return rates, nil
}

// GetMetalRates получает актуальные котировки драгметаллов из ЦБ РФ
func (c *MetalRatesClient) GetMetalRates() ([]model.MetalRate, error) {
	c.logger.Info("Запрос котировок драгметаллов в ЦБ РФ...")
	rawBody, err := c.sendRequest(buildMetalsSOAPRequest())
	if err != nil {
		c.logger.WithError(err).Error("Ошибка при отправке запроса в ЦБ РФ")
		return nil, err
	}

	rates, err := parseMetalsResponse(rawBody)
	if err != nil {
		c.logger.WithError(err).Error("Ошибка при разборе XML-ответа от ЦБ РФ")
		return nil, err
	}

	c.logger.WithField("metals", len(rates)).Info("Котировки драгметаллов получены")
	return rates, nil
}

// SuggestAppraisal рассчитывает рекомендованную сумму ссуды по весу металла.
// Рекомендация - доля рыночной стоимости, округленная вниз до целого доллара
func (c *MetalRatesClient) SuggestAppraisal(metalCode string, weightGrams float64) (*model.AppraisalSuggestion, error) {
	if weightGrams <= 0 {
		return nil, apperr.Validation("вес металла должен быть положительным")
	}

	rates, err := c.GetMetalRates()
	if err != nil {
		return nil, err
	}

	for _, rate := range rates {
		if rate.Code != metalCode {
			continue
		}

		price := decimal.NewFromFloat(rate.Price)
		weight := decimal.NewFromFloat(weightGrams)
		marketValue := price.Mul(weight)
		suggested := marketValue.Mul(loanToValueRatio)

		return &model.AppraisalSuggestion{
			Metal:         rate.Code,
			WeightGrams:   weightGrams,
			RatePerGram:   rate.Price,
			MarketValue:   marketValue.IntPart(),
			SuggestedLoan: suggested.IntPart(),
		}, nil
	}

	return nil, apperr.NotFound("котировка металла %s не найдена", metalCode)
}
