package service

import "testing"

const sampleMetalsXML = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <DragMetDynamicResponse xmlns="http://web.cbr.ru/">
      <DragMetDynamicResult>
        <diffgram>
          <DragMetall>
            <DrgMet>
              <DateMet>2026-08-27T00:00:00+03:00</DateMet>
              <CodMet>1</CodMet>
              <price>7100.50</price>
            </DrgMet>
            <DrgMet>
              <DateMet>2026-08-28T00:00:00+03:00</DateMet>
              <CodMet>1</CodMet>
              <price>7150.25</price>
            </DrgMet>
            <DrgMet>
              <DateMet>2026-08-28T00:00:00+03:00</DateMet>
              <CodMet>2</CodMet>
              <price>85.10</price>
            </DrgMet>
          </DragMetall>
        </diffgram>
      </DragMetDynamicResult>
    </DragMetDynamicResponse>
  </soap:Body>
</soap:Envelope>`

func TestParseMetalsResponse(t *testing.T) {
	rates, err := parseMetalsResponse([]byte(sampleMetalsXML))
	if err != nil {
		t.Fatalf("parseMetalsResponse() error = %v", err)
	}

	if len(rates) != 2 {
		t.Fatalf("ожидалось 2 металла, получено %d", len(rates))
	}

	// Для каждого металла берется последняя котировка
	if rates[0].Code != "Au" || rates[0].Price != 7150.25 {
		t.Errorf("Au = %+v, want price 7150.25", rates[0])
	}
	if rates[1].Code != "Ag" || rates[1].Price != 85.10 {
		t.Errorf("Ag = %+v, want price 85.10", rates[1])
	}
}

func TestParseMetalsResponseEmpty(t *testing.T) {
	empty := `<?xml version="1.0"?><root><diffgram></diffgram></root>`
	if _, err := parseMetalsResponse([]byte(empty)); err == nil {
		t.Error("пустой ответ должен возвращать ошибку")
	}
}

func TestParseMetalsResponseGarbage(t *testing.T) {
	if _, err := parseMetalsResponse([]byte("not xml at all <<<")); err == nil {
		t.Error("некорректный XML должен возвращать ошибку")
	}
}
