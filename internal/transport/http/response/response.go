package response

import "reflect"

// CtxCode gin.Context 里记录本次响应的业务码（供指标统计）
const CtxCode = "resp.code"

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New 构造函数（保证 data 不为 null：nil 切片输出 []，nil 指针/map 输出 {}）
func New(code int, msg string, data interface{}) Resp {
	return Resp{Code: code, Msg: msg, Data: nonNull(data)}
}

func nonNull(data interface{}) interface{} {
	if data == nil {
		return struct{}{}
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
	case reflect.Pointer, reflect.Map, reflect.Interface:
		if v.IsNil() {
			return struct{}{}
		}
	}
	return data
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}
