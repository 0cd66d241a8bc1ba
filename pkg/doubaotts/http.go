package doubaotts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// CodeSuccess 业务成功状态码
const CodeSuccess = 3000

// ttsHTTPRequest is the classic /api/v1/tts request body.
type ttsHTTPRequest struct {
	App struct {
		AppID   string `json:"appid"`
		Token   string `json:"token,omitempty"`
		Cluster string `json:"cluster"`
	} `json:"app"`
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	Audio struct {
		VoiceType  string  `json:"voice_type"`
		Encoding   string  `json:"encoding,omitempty"`
		SampleRate int     `json:"sample_rate,omitempty"`
		SpeedRatio float64 `json:"speed_ratio,omitempty"`
	} `json:"audio"`
	Request struct {
		ReqID     string `json:"reqid"`
		Text      string `json:"text"`
		TextType  string `json:"text_type"`
		Operation string `json:"operation"`
	} `json:"request"`
}

// ttsHTTPResponse is the classic API response; audio arrives base64
// encoded in data, the clip duration as a string in addition.
type ttsHTTPResponse struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Data     string `json:"data"`
	Addition struct {
		Duration string `json:"duration"`
	} `json:"addition"`
}

// SynthesizeHTTP converts text to speech through the classic one-shot
// HTTP endpoint (/api/v1/tts). The whole clip comes back in a single
// JSON response, so there is no session to manage; useful as a fallback
// when the streaming endpoint is unavailable for an account.
//
// Voice parameter validation and the error taxonomy match Synthesize.
func (c *Client) SynthesizeHTTP(ctx context.Context, text string, params *VoiceParams) (*SynthesizeResult, error) {
	if text == "" {
		return nil, invalidParamsErr("text is empty")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	var req ttsHTTPRequest
	req.App.AppID = c.config.appID
	req.App.Token = c.config.accessKey
	req.App.Cluster = "volcano_tts"
	req.User.UID = c.config.userID
	req.Audio.VoiceType = params.Speaker
	req.Audio.Encoding = params.format()
	req.Audio.SampleRate = params.sampleRate()
	// The classic API takes a ratio; map the offset so 0 stays the
	// natural rate and the contract bounds land on [0.5, 2.0].
	req.Audio.SpeedRatio = 1.0 + float64(params.SpeedRate)/100.0
	req.Request.ReqID = generateID()
	req.Request.Text = text
	req.Request.TextType = "plain"
	req.Request.Operation = "query"

	body, err := json.Marshal(&req)
	if err != nil {
		return nil, protocolErr(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.baseURL+"/api/v1/tts", bytes.NewReader(body))
	if err != nil {
		return nil, connectErr(err, "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.accessKey != "" {
		httpReq.Header.Set("Authorization", "Bearer;"+c.config.accessKey)
	}

	resp, err := c.config.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, timeoutErr("http synthesis")
		}
		return nil, connectErr(err, "send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, protocolErr(err, "read response")
	}

	var apiResp ttsHTTPResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, protocolErr(err, "unmarshal response, status "+resp.Status)
	}
	if apiResp.Code != CodeSuccess {
		return nil, &Error{
			Kind:    KindProtocol,
			Message: apiResp.Message,
			Code:    apiResp.Code,
		}
	}

	if apiResp.Data == "" {
		return nil, emptyResultErr()
	}
	audio, err := base64.StdEncoding.DecodeString(apiResp.Data)
	if err != nil {
		return nil, protocolErr(err, "decode audio data")
	}
	if len(audio) == 0 {
		return nil, emptyResultErr()
	}

	duration, _ := strconv.Atoi(apiResp.Addition.Duration)
	if duration == 0 {
		duration = pcmDurationMS(params.format(), len(audio), params.sampleRate())
	}

	return &SynthesizeResult{
		Audio:      audio,
		Format:     params.format(),
		SampleRate: params.sampleRate(),
		DurationMS: duration,
	}, nil
}
